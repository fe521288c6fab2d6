package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchStatus represents the review state of a batch.
type BatchStatus string

const (
	BatchStatusNew           BatchStatus = "NEW"
	BatchStatusPendingReview BatchStatus = "PENDING_REVIEW"
	BatchStatusReviewed      BatchStatus = "REVIEWED"
	BatchStatusNeedsReReview BatchStatus = "NEEDS_RE_REVIEW"
)

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusNew, BatchStatusPendingReview, BatchStatusReviewed, BatchStatusNeedsReReview:
		return true
	}
	return false
}

func ParseBatchStatusFromString(s string) (BatchStatus, error) {
	st := BatchStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid batch status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// ReviewerRole identifies the role a batch is assigned to for review.
type ReviewerRole string

const (
	RoleManager ReviewerRole = "MANAGER"
	RoleAdmin   ReviewerRole = "ADMIN"
)

func (r ReviewerRole) String() string { return string(r) }

func (r ReviewerRole) IsValid() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	}
	return false
}

func ParseReviewerRoleFromString(s string) (ReviewerRole, error) {
	role := ReviewerRole(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: invalid reviewer role %q", ErrValidation, s)
	}
	return role, nil
}

// Batch is a named collection of candidates submitted together for review.
// Revision is bumped on every state-affecting mutation and guards review
// sessions against concurrent overwrites.
type Batch struct {
	ID           string       `gorm:"type:uuid;primaryKey"`
	Name         string       `gorm:"type:varchar(255)"`
	Status       BatchStatus  `gorm:"type:varchar(20);not null"`
	AssignedTo   ReviewerRole `gorm:"type:varchar(10);not null"`
	SubmittedBy  string       `gorm:"type:varchar(64);not null"`
	Revision     int64        `gorm:"not null;default:0"`
	Members      []Candidate  `gorm:"-"`
	CreatedAt    time.Time
	LastEditedAt time.Time
}

func (b *Batch) Validate() error {
	if !b.Status.IsValid() {
		return fmt.Errorf("%w: invalid batch status %q", ErrInvalidStatus, b.Status)
	}
	if !b.AssignedTo.IsValid() {
		return fmt.Errorf("%w: invalid reviewer role %q", ErrValidation, b.AssignedTo)
	}
	if strings.TrimSpace(b.SubmittedBy) == "" {
		return fmt.Errorf("%w: submittedBy is required", ErrValidation)
	}
	return nil
}

// EditedSinceCreation reports whether the batch has been modified after it
// was created. Observers use this to label a batch as updated.
func (b *Batch) EditedSinceCreation() bool {
	return !b.LastEditedAt.Equal(b.CreatedAt)
}
