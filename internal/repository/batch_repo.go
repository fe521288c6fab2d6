package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListParams struct {
	Status      *domain.BatchStatus
	AssignedTo  *domain.ReviewerRole
	SubmittedBy *string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// BatchPatch carries partial updates for a batch. Nil fields are left
// untouched.
type BatchPatch struct {
	Name       *string
	AssignedTo *domain.ReviewerRole
	Status     *domain.BatchStatus
}

type BatchRepository interface {
	Create(ctx context.Context, b *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	List(ctx context.Context, params ListParams) ([]domain.Batch, int64, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]domain.Batch, error)
	Update(ctx context.Context, id string, patch BatchPatch) (*domain.Batch, bool, error)
	SetStatus(ctx context.Context, id string, status domain.BatchStatus, expectedRevision *int64) (*domain.Batch, error)
	DeleteCascade(ctx context.Context, id string) error
	ListStaleNeedsReReview(ctx context.Context, olderThan time.Time, limit int) ([]domain.Batch, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	model := batchModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if b != nil {
		*b = *batchModelToDomain(model)
	}
	return nil
}

// GetByID loads a batch with its member candidates resolved in insertion
// order.
func (r *GormBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var members []CandidateModel
	err = r.db.WithContext(ctx).
		Where("batch_id = ?", id).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	batch := batchModelToDomain(&model)
	batch.Members = candidateModelsToDomain(members)
	return batch, nil
}

func (r *GormBatchRepo) List(ctx context.Context, params ListParams) ([]domain.Batch, int64, error) {
	query := r.db.WithContext(ctx).Model(&BatchModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.SubmittedBy != nil {
		query = query.Where("submitted_by = ?", *params.SubmittedBy)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []BatchModel
	err := query.
		Order("last_edited_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}

	return batches, total, nil
}

// ListBySubmitter returns a submitter's batches most recently touched
// first, so submitters see what changed, not what was created last.
func (r *GormBatchRepo) ListBySubmitter(ctx context.Context, submitterID string) ([]domain.Batch, error) {
	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where("submitted_by = ?", submitterID).
		Order("last_edited_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}

	return batches, nil
}

// Update applies a patch under a row lock. A REVIEWED batch is forced to
// NEEDS_RE_REVIEW regardless of what the patch requested for status; the
// returned flag reports that reopening.
func (r *GormBatchRepo) Update(ctx context.Context, id string, patch BatchPatch) (*domain.Batch, bool, error) {
	var updated *domain.Batch
	reopened := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model BatchModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		persisted := model.Status

		if patch.Name != nil {
			model.Name = *patch.Name
		}
		if patch.AssignedTo != nil {
			model.AssignedTo = *patch.AssignedTo
		}
		if patch.Status != nil {
			model.Status = *patch.Status
		}

		// The persisted status, not the requested one, decides reopening.
		if next, didReopen := domain.ReopenOnMutation(persisted); didReopen {
			model.Status = next
			reopened = true
		}

		model.Revision++
		model.LastEditedAt = time.Now().UTC()

		if err := tx.Save(&model).Error; err != nil {
			return err
		}

		updated = batchModelToDomain(&model)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return updated, reopened, nil
}

// SetStatus transitions a batch to an explicit status. When
// expectedRevision is set, a mismatch with the persisted revision fails
// with ErrReviewConflict and nothing is written.
func (r *GormBatchRepo) SetStatus(ctx context.Context, id string, status domain.BatchStatus, expectedRevision *int64) (*domain.Batch, error) {
	var updated *domain.Batch

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model BatchModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if expectedRevision != nil && model.Revision != *expectedRevision {
			return fmt.Errorf("%w: batch %s is at revision %d, review session saw %d",
				domain.ErrReviewConflict, id, model.Revision, *expectedRevision)
		}

		model.Status = status
		model.Revision++
		model.LastEditedAt = time.Now().UTC()

		if err := tx.Save(&model).Error; err != nil {
			return err
		}

		updated = batchModelToDomain(&model)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCascade removes a batch and all member candidates in one
// transaction. A failure rolls everything back and surfaces as
// ErrCascadeFailure with the batch and candidates intact.
func (r *GormBatchRepo) DeleteCascade(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model BatchModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("batch_id = ?", id).Delete(&CandidateModel{}).Error; err != nil {
			return fmt.Errorf("%w: deleting member candidates: %v", domain.ErrCascadeFailure, err)
		}

		if err := tx.Delete(&BatchModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("%w: deleting batch: %v", domain.ErrCascadeFailure, err)
		}

		return nil
	})

	return err
}

// ListStaleNeedsReReview returns batches that have been waiting in
// NEEDS_RE_REVIEW since before olderThan, oldest first.
func (r *GormBatchRepo) ListStaleNeedsReReview(ctx context.Context, olderThan time.Time, limit int) ([]domain.Batch, error) {
	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_edited_at <= ?", domain.BatchStatusNeedsReReview, olderThan).
		Order("last_edited_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}

	return batches, nil
}
