package migrations

import (
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createCandidatesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_candidates",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CandidateModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_candidates_batch_id ON candidates (batch_id) WHERE batch_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_candidates_batch_last_edited ON candidates (batch_id, last_edited_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates (status)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CandidateModel{})
		},
	}
}
