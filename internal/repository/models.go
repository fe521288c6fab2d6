package repository

import (
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
)

// BatchModel is the persistence model for the batches table.
type BatchModel struct {
	ID           string              `gorm:"type:uuid;primaryKey"`
	Name         string              `gorm:"type:varchar(255)"`
	Status       domain.BatchStatus  `gorm:"type:varchar(20);not null"`
	AssignedTo   domain.ReviewerRole `gorm:"type:varchar(10);not null"`
	SubmittedBy  string              `gorm:"type:varchar(64);not null"`
	Revision     int64               `gorm:"not null;default:0"`
	CreatedAt    time.Time
	LastEditedAt time.Time
}

func (BatchModel) TableName() string {
	return "batches"
}

// CandidateModel is the persistence model for the candidates table.
type CandidateModel struct {
	ID            string                 `gorm:"type:uuid;primaryKey"`
	BatchID       *string                `gorm:"type:uuid"`
	Name          string                 `gorm:"type:varchar(255);not null"`
	Contact       string                 `gorm:"type:varchar(64);not null"`
	Email         string                 `gorm:"type:varchar(255)"`
	Department    string                 `gorm:"type:varchar(128)"`
	Location      string                 `gorm:"type:varchar(128);not null"`
	Status        domain.CandidateStatus `gorm:"type:varchar(20);not null"`
	IsDuplicate   bool                   `gorm:"not null;default:false"`
	DuplicateOfID *string                `gorm:"type:uuid"`
	ReviewedBy    *string                `gorm:"type:varchar(64)"`
	ReviewDate    *time.Time
	CreatedAt     time.Time
	LastEditedAt  time.Time
}

func (CandidateModel) TableName() string {
	return "candidates"
}

// WebhookDeliveryModel is the persistence model for the notifier's
// delivery log.
type WebhookDeliveryModel struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	EventID    string  `gorm:"type:uuid;not null"`
	EventKind  string  `gorm:"type:varchar(32);not null"`
	BatchID    string  `gorm:"type:uuid;not null"`
	StatusCode *int    `gorm:"type:int"`
	Error      *string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (WebhookDeliveryModel) TableName() string {
	return "webhook_deliveries"
}

func batchModelFromDomain(b *domain.Batch) *BatchModel {
	if b == nil {
		return nil
	}

	return &BatchModel{
		ID:           b.ID,
		Name:         b.Name,
		Status:       b.Status,
		AssignedTo:   b.AssignedTo,
		SubmittedBy:  b.SubmittedBy,
		Revision:     b.Revision,
		CreatedAt:    b.CreatedAt,
		LastEditedAt: b.LastEditedAt,
	}
}

func batchModelToDomain(m *BatchModel) *domain.Batch {
	if m == nil {
		return nil
	}

	return &domain.Batch{
		ID:           m.ID,
		Name:         m.Name,
		Status:       m.Status,
		AssignedTo:   m.AssignedTo,
		SubmittedBy:  m.SubmittedBy,
		Revision:     m.Revision,
		CreatedAt:    m.CreatedAt,
		LastEditedAt: m.LastEditedAt,
	}
}

func candidateModelFromDomain(c *domain.Candidate) *CandidateModel {
	if c == nil {
		return nil
	}

	return &CandidateModel{
		ID:            c.ID,
		BatchID:       c.BatchID,
		Name:          c.Name,
		Contact:       c.Contact,
		Email:         c.Email,
		Department:    c.Department,
		Location:      c.Location,
		Status:        c.Status,
		IsDuplicate:   c.IsDuplicate,
		DuplicateOfID: c.DuplicateOfID,
		ReviewedBy:    c.ReviewedBy,
		ReviewDate:    c.ReviewDate,
		CreatedAt:     c.CreatedAt,
		LastEditedAt:  c.LastEditedAt,
	}
}

func candidateModelToDomain(m *CandidateModel) *domain.Candidate {
	if m == nil {
		return nil
	}

	return &domain.Candidate{
		ID:            m.ID,
		BatchID:       m.BatchID,
		Name:          m.Name,
		Contact:       m.Contact,
		Email:         m.Email,
		Department:    m.Department,
		Location:      m.Location,
		Status:        m.Status,
		IsDuplicate:   m.IsDuplicate,
		DuplicateOfID: m.DuplicateOfID,
		ReviewedBy:    m.ReviewedBy,
		ReviewDate:    m.ReviewDate,
		CreatedAt:     m.CreatedAt,
		LastEditedAt:  m.LastEditedAt,
	}
}

func candidateModelsToDomain(models []CandidateModel) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(models))
	for i := range models {
		candidates = append(candidates, *candidateModelToDomain(&models[i]))
	}
	return candidates
}
