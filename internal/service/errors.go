package service

import (
	"fmt"
	"strings"

	"github.com/fleethr/recruit-review/internal/domain"
)

// CandidateFailure is one failed decision commit inside a review submit.
type CandidateFailure struct {
	CandidateID string
	Err         error
}

// PartialReviewError reports a review submission where one or more
// candidate decision commits failed. The batch is left unsealed;
// decisions that did commit stay committed, and re-submitting the whole
// selection is safe because decision commits are idempotent.
type PartialReviewError struct {
	BatchID  string
	Total    int
	Failures []CandidateFailure
}

func (e *PartialReviewError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("partial review failure: %d/%d candidate decisions failed for batch %s",
		len(e.Failures), e.Total, e.BatchID)
}

// FailedIDs lists the candidates whose decisions did not commit.
func (e *PartialReviewError) FailedIDs() []string {
	if e == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.CandidateID)
	}
	return ids
}

// ConfirmationRequiredError reports a staged all-denied submission. The
// caller must re-submit with the stage token to commit blanket rejection.
type ConfirmationRequiredError struct {
	BatchID    string
	StageToken string
}

func (e *ConfirmationRequiredError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v: empty approval set for batch %s staged, re-submit with the stage token to reject all",
		domain.ErrConfirmationRequired, e.BatchID)
}

func (e *ConfirmationRequiredError) Unwrap() error {
	return domain.ErrConfirmationRequired
}

func joinFailureDetails(failures []CandidateFailure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.CandidateID, f.Err))
	}
	return strings.Join(parts, "; ")
}
