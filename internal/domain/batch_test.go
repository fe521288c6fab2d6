package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseBatchStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    BatchStatus
		wantErr bool
	}{
		{name: "valid uppercase", input: "REVIEWED", want: BatchStatusReviewed},
		{name: "valid lowercase with spaces", input: " needs_re_review ", want: BatchStatusNeedsReReview},
		{name: "valid new", input: "new", want: BatchStatusNew},
		{name: "invalid", input: "BOGUS", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseBatchStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("ParseBatchStatusFromString() error = %v, want ErrInvalidStatus", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseBatchStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseBatchStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseReviewerRoleFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseReviewerRoleFromString(" manager ")
	if err != nil {
		t.Fatalf("ParseReviewerRoleFromString() unexpected error = %v", err)
	}
	if got != RoleManager {
		t.Fatalf("ParseReviewerRoleFromString() = %s, want %s", got, RoleManager)
	}

	_, err = ParseReviewerRoleFromString("intern")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseReviewerRoleFromString() error = %v, want ErrValidation", err)
	}
}

func TestBatchValidate(t *testing.T) {
	t.Parallel()

	base := Batch{
		Status:      BatchStatusNew,
		AssignedTo:  RoleManager,
		SubmittedBy: "user-17",
	}

	tests := []struct {
		name    string
		mutate  func(*Batch)
		wantErr error
	}{
		{
			name:   "valid batch",
			mutate: func(b *Batch) {},
		},
		{
			name: "invalid status",
			mutate: func(b *Batch) {
				b.Status = BatchStatus("SEALED")
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "invalid role",
			mutate: func(b *Batch) {
				b.AssignedTo = ReviewerRole("OWNER")
			},
			wantErr: ErrValidation,
		},
		{
			name: "missing submitter",
			mutate: func(b *Batch) {
				b.SubmittedBy = "  "
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestReopenOnMutation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     BatchStatus
		want       BatchStatus
		wantReopen bool
	}{
		{name: "reviewed reopens", status: BatchStatusReviewed, want: BatchStatusNeedsReReview, wantReopen: true},
		{name: "new unchanged", status: BatchStatusNew, want: BatchStatusNew},
		{name: "pending unchanged", status: BatchStatusPendingReview, want: BatchStatusPendingReview},
		{name: "needs re-review unchanged", status: BatchStatusNeedsReReview, want: BatchStatusNeedsReReview},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reopened := ReopenOnMutation(tt.status)
			if got != tt.want {
				t.Fatalf("ReopenOnMutation() = %s, want %s", got, tt.want)
			}
			if reopened != tt.wantReopen {
				t.Fatalf("ReopenOnMutation() reopened = %v, want %v", reopened, tt.wantReopen)
			}
		})
	}
}

func TestBatchEditedSinceCreation(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	fresh := Batch{CreatedAt: created, LastEditedAt: created}
	if fresh.EditedSinceCreation() {
		t.Fatal("EditedSinceCreation() = true for untouched batch")
	}

	touched := Batch{CreatedAt: created, LastEditedAt: created.Add(time.Minute)}
	if !touched.EditedSinceCreation() {
		t.Fatal("EditedSinceCreation() = false for modified batch")
	}
}

func TestCandidateValidate(t *testing.T) {
	t.Parallel()

	base := Candidate{
		Name:     "Ada Tran",
		Contact:  "+15550100",
		Location: "Depot North",
		Status:   CandidateStatusPendingReview,
	}

	tests := []struct {
		name      string
		mutate    func(*Candidate)
		wantErr   error
		wantField string
	}{
		{
			name:   "valid candidate",
			mutate: func(c *Candidate) {},
		},
		{
			name: "missing name",
			mutate: func(c *Candidate) {
				c.Name = ""
			},
			wantErr:   ErrValidation,
			wantField: "name",
		},
		{
			name: "missing contact",
			mutate: func(c *Candidate) {
				c.Contact = "   "
			},
			wantErr:   ErrValidation,
			wantField: "contact",
		},
		{
			name: "missing location",
			mutate: func(c *Candidate) {
				c.Location = ""
			},
			wantErr:   ErrValidation,
			wantField: "location",
		},
		{
			name: "invalid status",
			mutate: func(c *Candidate) {
				c.Status = CandidateStatus("MAYBE")
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				if tt.wantField != "" && !strings.Contains(err.Error(), tt.wantField) {
					t.Fatalf("Validate() error %q should name field %q", err, tt.wantField)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestCandidateStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if !CandidateStatusApproved.IsTerminal() || !CandidateStatusRejected.IsTerminal() {
		t.Fatal("approved and rejected should be terminal")
	}
	if CandidateStatusPendingReview.IsTerminal() {
		t.Fatal("pending review should not be terminal")
	}
}
