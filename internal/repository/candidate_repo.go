package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidatePatch carries partial updates for a candidate's descriptive
// fields. Nil fields are left untouched.
type CandidatePatch struct {
	Name       *string
	Contact    *string
	Email      *string
	Department *string
	Location   *string
}

type CandidateRepository interface {
	Create(ctx context.Context, c *domain.Candidate) error
	CreateInBatch(ctx context.Context, batchID string, c *domain.Candidate) (bool, error)
	RemoveFromBatch(ctx context.Context, batchID string, candidateID string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.Candidate, error)
	UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus, reviewerID string) (*domain.Candidate, error)
	UpdateFields(ctx context.Context, id string, patch CandidatePatch) (*domain.Candidate, bool, error)
	Delete(ctx context.Context, id string) (*string, bool, error)
}

type GormCandidateRepo struct {
	db *gorm.DB
}

func NewGormCandidateRepo(db *gorm.DB) *GormCandidateRepo {
	return &GormCandidateRepo{db: db}
}

func (r *GormCandidateRepo) Create(ctx context.Context, c *domain.Candidate) error {
	model := candidateModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *candidateModelToDomain(model)
	}
	return nil
}

// CreateInBatch inserts a candidate attached to a batch. The batch row is
// locked for the duration so the reopen check cannot race a sibling
// mutation; membership growth on a REVIEWED batch reopens it. Returns
// whether the batch reopened.
func (r *GormCandidateRepo) CreateInBatch(ctx context.Context, batchID string, c *domain.Candidate) (bool, error) {
	reopened := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := lockBatch(tx, batchID)
		if err != nil {
			return err
		}

		model := candidateModelFromDomain(c)
		model.BatchID = &batch.ID
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if c != nil {
			*c = *candidateModelToDomain(model)
		}

		reopened, err = touchBatch(tx, batch)
		return err
	})
	if err != nil {
		return false, err
	}

	return reopened, nil
}

// RemoveFromBatch deletes a candidate out of a batch's roster. Removal
// from a REVIEWED batch reopens it, same as growth.
func (r *GormCandidateRepo) RemoveFromBatch(ctx context.Context, batchID string, candidateID string) (bool, error) {
	reopened := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := lockBatch(tx, batchID)
		if err != nil {
			return err
		}

		result := tx.Where("id = ? AND batch_id = ?", candidateID, batchID).
			Delete(&CandidateModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		reopened, err = touchBatch(tx, batch)
		return err
	})
	if err != nil {
		return false, err
	}

	return reopened, nil
}

func (r *GormCandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var model CandidateModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return candidateModelToDomain(&model), nil
}

func (r *GormCandidateRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.Candidate, error) {
	var models []CandidateModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("last_edited_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return candidateModelsToDomain(models), nil
}

// UpdateStatus commits a review decision. The write is conditional on the
// decision actually changing, which makes re-submitting the same decision
// a no-op: the candidate's observable state, including review date, is
// identical after the second call. The owning batch's status and revision
// are deliberately not touched here; sealing is the caller's second
// phase. Its lastEditedAt is stamped, though: a decision is still an
// edit.
func (r *GormCandidateRepo) UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus, reviewerID string) (*domain.Candidate, error) {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&CandidateModel{}).
		Where("id = ? AND NOT (status = ? AND COALESCE(reviewed_by, '') = ?)", id, status, reviewerID).
		Updates(map[string]any{
			"status":         status,
			"reviewed_by":    reviewerID,
			"review_date":    now,
			"last_edited_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var model CandidateModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if result.RowsAffected > 0 && model.BatchID != nil {
		err := r.db.WithContext(ctx).
			Model(&BatchModel{}).
			Where("id = ?", *model.BatchID).
			Update("last_edited_at", now).Error
		if err != nil {
			return nil, err
		}
	}

	return candidateModelToDomain(&model), nil
}

// UpdateFields edits descriptive fields. Edits are membership-equivalent
// for the reopen rule: touching a member of a REVIEWED batch reopens the
// batch in the same transaction.
func (r *GormCandidateRepo) UpdateFields(ctx context.Context, id string, patch CandidatePatch) (*domain.Candidate, bool, error) {
	var updated *domain.Candidate
	reopened := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CandidateModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if patch.Name != nil {
			model.Name = *patch.Name
		}
		if patch.Contact != nil {
			model.Contact = *patch.Contact
		}
		if patch.Email != nil {
			model.Email = *patch.Email
		}
		if patch.Department != nil {
			model.Department = *patch.Department
		}
		if patch.Location != nil {
			model.Location = *patch.Location
		}
		model.LastEditedAt = time.Now().UTC()

		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		updated = candidateModelToDomain(&model)

		if model.BatchID == nil {
			return nil
		}

		batch, err := lockBatch(tx, *model.BatchID)
		if err != nil {
			return err
		}

		reopened, err = touchBatch(tx, batch)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return updated, reopened, nil
}

// Delete removes a candidate outright. When the candidate is a batch
// member, the delete is a membership mutation like RemoveFromBatch: the
// owning batch is locked and touched in the same transaction. Returns
// the owning batch id, if any, and whether that batch reopened.
func (r *GormCandidateRepo) Delete(ctx context.Context, id string) (*string, bool, error) {
	var batchID *string
	reopened := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CandidateModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if model.BatchID == nil {
			return tx.Delete(&CandidateModel{}, "id = ?", id).Error
		}

		batch, err := lockBatch(tx, *model.BatchID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&CandidateModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		batchID = model.BatchID

		reopened, err = touchBatch(tx, batch)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return batchID, reopened, nil
}

func lockBatch(tx *gorm.DB, batchID string) (*BatchModel, error) {
	var batch BatchModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// touchBatch applies the reopen rule, bumps the revision, and stamps the
// batch as edited. Runs inside the caller's transaction against a locked
// batch row.
func touchBatch(tx *gorm.DB, batch *BatchModel) (bool, error) {
	next, reopened := domain.ReopenOnMutation(batch.Status)
	batch.Status = next
	batch.Revision++
	batch.LastEditedAt = time.Now().UTC()

	if err := tx.Save(batch).Error; err != nil {
		return false, err
	}

	return reopened, nil
}
