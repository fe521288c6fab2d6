package domain

import "errors"

var (
	// ErrNotFound reports a missing batch or candidate.
	ErrNotFound = errors.New("record not found")
	// ErrValidation reports a rejected input field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStatus reports a status outside the enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrCascadeFailure reports a batch delete that could not remove the
	// batch and its members as one unit.
	ErrCascadeFailure = errors.New("cascade delete failed")
	// ErrReviewConflict reports a review commit built against a stale
	// batch revision.
	ErrReviewConflict = errors.New("review conflict")
	// ErrConfirmationRequired reports an all-denied review submission
	// that was staged instead of committed.
	ErrConfirmationRequired = errors.New("confirmation required")
)
