package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// WebhookDelivery is one relay attempt recorded by the notifier worker.
type WebhookDelivery struct {
	ID         string
	EventID    string
	EventKind  string
	BatchID    string
	StatusCode *int
	Error      *string
	CreatedAt  time.Time
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *WebhookDelivery) error
	ListByBatch(ctx context.Context, batchID string) ([]WebhookDelivery, error)
}

type GormDeliveryRepo struct {
	db *gorm.DB
}

func NewGormDeliveryRepo(db *gorm.DB) *GormDeliveryRepo {
	return &GormDeliveryRepo{db: db}
}

func (r *GormDeliveryRepo) Create(ctx context.Context, d *WebhookDelivery) error {
	model := &WebhookDeliveryModel{
		ID:         d.ID,
		EventID:    d.EventID,
		EventKind:  d.EventKind,
		BatchID:    d.BatchID,
		StatusCode: d.StatusCode,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	d.CreatedAt = model.CreatedAt
	return nil
}

func (r *GormDeliveryRepo) ListByBatch(ctx context.Context, batchID string) ([]WebhookDelivery, error) {
	var models []WebhookDeliveryModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	deliveries := make([]WebhookDelivery, 0, len(models))
	for _, m := range models {
		deliveries = append(deliveries, WebhookDelivery{
			ID:         m.ID,
			EventID:    m.EventID,
			EventKind:  m.EventKind,
			BatchID:    m.BatchID,
			StatusCode: m.StatusCode,
			Error:      m.Error,
			CreatedAt:  m.CreatedAt,
		})
	}

	return deliveries, nil
}
