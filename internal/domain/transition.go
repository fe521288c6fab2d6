package domain

// ReopenOnMutation is the single transition rule shared by every mutation
// that touches a batch's membership or a member's fields: a sealed batch
// falls back to NEEDS_RE_REVIEW, any other status is left alone.
//
// The returned flag is true when the batch actually reopened; callers emit
// exactly one re-review event per true result.
func ReopenOnMutation(status BatchStatus) (BatchStatus, bool) {
	if status == BatchStatusReviewed {
		return BatchStatusNeedsReReview, true
	}
	return status, false
}
