package migrations

import (
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createWebhookDeliveriesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_webhook_deliveries",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.WebhookDeliveryModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_batch_id ON webhook_deliveries (batch_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.WebhookDeliveryModel{})
		},
	}
}
