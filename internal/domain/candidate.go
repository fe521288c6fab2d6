package domain

import (
	"fmt"
	"strings"
	"time"
)

// CandidateStatus represents the review decision state of a candidate.
type CandidateStatus string

const (
	CandidateStatusPendingReview CandidateStatus = "PENDING_REVIEW"
	CandidateStatusApproved      CandidateStatus = "APPROVED"
	CandidateStatusRejected      CandidateStatus = "REJECTED"
)

func (s CandidateStatus) String() string { return string(s) }

func (s CandidateStatus) IsValid() bool {
	switch s {
	case CandidateStatusPendingReview, CandidateStatusApproved, CandidateStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a final review decision.
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateStatusApproved || s == CandidateStatusRejected
}

func ParseCandidateStatusFromString(s string) (CandidateStatus, error) {
	st := CandidateStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid candidate status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Candidate is a single record proposed for approval or rejection,
// optionally attached to a batch. BatchID is nil for unbatched candidates.
type Candidate struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	BatchID       *string         `gorm:"type:uuid"`
	Name          string          `gorm:"type:varchar(255);not null"`
	Contact       string          `gorm:"type:varchar(64);not null"`
	Email         string          `gorm:"type:varchar(255)"`
	Department    string          `gorm:"type:varchar(128)"`
	Location      string          `gorm:"type:varchar(128);not null"`
	Status        CandidateStatus `gorm:"type:varchar(20);not null"`
	IsDuplicate   bool            `gorm:"not null;default:false"`
	DuplicateOfID *string         `gorm:"type:uuid"`
	ReviewedBy    *string         `gorm:"type:varchar(64)"`
	ReviewDate    *time.Time
	CreatedAt     time.Time
	LastEditedAt  time.Time
}

func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(c.Contact) == "" {
		return fmt.Errorf("%w: contact is required", ErrValidation)
	}
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: invalid candidate status %q", ErrInvalidStatus, c.Status)
	}
	return nil
}
