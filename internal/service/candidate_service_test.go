package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fleethr/recruit-review/internal/domain"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
)

func validCandidateInput() CandidateInput {
	return CandidateInput{
		Name:       "Deniz Aksoy",
		Contact:    "+905551112233",
		Email:      "deniz.aksoy@example.com",
		Department: "Engineering",
		Location:   "Istanbul",
	}
}

func TestCandidateServiceCreateDefaultsToPendingReview(t *testing.T) {
	t.Parallel()

	repo := &fakeCandidateRepo{
		createFn: func(ctx context.Context, c *domain.Candidate) error {
			if c.BatchID != nil {
				t.Fatal("unbatched create should not set batch id")
			}
			return nil
		},
	}

	svc, err := NewCandidateService(repo, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	candidate, err := svc.Create(context.Background(), validCandidateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if candidate.Status != domain.CandidateStatusPendingReview {
		t.Fatalf("status = %s, want PENDING_REVIEW", candidate.Status)
	}
	if strings.TrimSpace(candidate.ID) == "" {
		t.Fatal("id should be generated")
	}
}

func TestCandidateServiceCreateValidationNamesField(t *testing.T) {
	t.Parallel()

	svc, err := NewCandidateService(&fakeCandidateRepo{}, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	testCases := []struct {
		name      string
		mutate    func(input *CandidateInput)
		wantField string
	}{
		{name: "missing name", mutate: func(in *CandidateInput) { in.Name = " " }, wantField: "name"},
		{name: "missing contact", mutate: func(in *CandidateInput) { in.Contact = "" }, wantField: "contact"},
		{name: "missing location", mutate: func(in *CandidateInput) { in.Location = "" }, wantField: "location"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := validCandidateInput()
			tc.mutate(&input)

			_, err := svc.Create(context.Background(), input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tc.wantField) {
				t.Fatalf("error %q should name the %q field", err.Error(), tc.wantField)
			}
		})
	}
}

func TestCandidateServiceAddToBatchReopenedPublishesEvent(t *testing.T) {
	t.Parallel()

	repo := &fakeCandidateRepo{
		createInBatchFn: func(ctx context.Context, batchID string, c *domain.Candidate) (bool, error) {
			if batchID != "b1" {
				t.Fatalf("batchID = %s, want b1", batchID)
			}
			return true, nil
		},
	}

	publishCount := 0
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			publishCount++
			if queueName != "batch.re-review" {
				t.Fatalf("queue = %s, want batch.re-review", queueName)
			}
			if msg.Kind != queue.EventBatchReopened {
				t.Fatalf("kind = %s, want BATCH_REOPENED", msg.Kind)
			}
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	if _, err := svc.AddToBatch(context.Background(), "b1", validCandidateInput()); err != nil {
		t.Fatalf("AddToBatch() error = %v", err)
	}
	if publishCount != 1 {
		t.Fatalf("publish count = %d, want exactly 1", publishCount)
	}
}

func TestCandidateServiceRemoveFromBatchWithoutReopenSkipsPublish(t *testing.T) {
	t.Parallel()

	repo := &fakeCandidateRepo{
		removeFromBatchFn: func(ctx context.Context, batchID string, candidateID string) (bool, error) {
			return false, nil
		},
	}

	published := false
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			published = true
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	if err := svc.RemoveFromBatch(context.Background(), "b1", "c1"); err != nil {
		t.Fatalf("RemoveFromBatch() error = %v", err)
	}
	if published {
		t.Fatal("publish should not be called when the batch did not reopen")
	}
}

func TestCandidateServiceUpdateStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc, err := NewCandidateService(&fakeCandidateRepo{}, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), "c1", "MAYBE", "reviewer-1")
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("UpdateStatus() error = %v, want ErrInvalidStatus", err)
	}
}

func TestCandidateServiceUpdateStatusDoesNotPublish(t *testing.T) {
	t.Parallel()

	repo := &fakeCandidateRepo{
		updateStatusFn: func(ctx context.Context, id string, status domain.CandidateStatus, reviewerID string) (*domain.Candidate, error) {
			if reviewerID != "reviewer-1" {
				t.Fatalf("reviewerID = %s, want reviewer-1", reviewerID)
			}
			return &domain.Candidate{ID: id, Status: status}, nil
		},
	}

	published := false
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			published = true
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	candidate, err := svc.UpdateStatus(context.Background(), "c1", "APPROVED", "reviewer-1")
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if candidate.Status != domain.CandidateStatusApproved {
		t.Fatalf("status = %s, want APPROVED", candidate.Status)
	}
	if published {
		t.Fatal("a decision commit must not publish batch events")
	}
}

func TestCandidateServiceUpdateFieldsRejectsClearingRequiredField(t *testing.T) {
	t.Parallel()

	svc, err := NewCandidateService(&fakeCandidateRepo{}, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	blank := "  "
	_, err = svc.UpdateFields(context.Background(), "c1", CandidateFieldsInput{Name: &blank})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateFields() error = %v, want ErrValidation", err)
	}
}

func TestCandidateServiceUpdateFieldsReopenedPublishesForOwningBatch(t *testing.T) {
	t.Parallel()

	batchID := "b7"
	repo := &fakeCandidateRepo{
		updateFieldsFn: func(ctx context.Context, id string, patch repository.CandidatePatch) (*domain.Candidate, bool, error) {
			return &domain.Candidate{ID: id, BatchID: &batchID}, true, nil
		},
	}

	var gotBatchID string
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			gotBatchID = msg.BatchID
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	newDept := "Platform"
	if _, err := svc.UpdateFields(context.Background(), "c1", CandidateFieldsInput{Department: &newDept}); err != nil {
		t.Fatalf("UpdateFields() error = %v", err)
	}
	if gotBatchID != batchID {
		t.Fatalf("published batchId = %q, want %q", gotBatchID, batchID)
	}
}

func TestCandidateServiceDeleteReopenedPublishesEvent(t *testing.T) {
	t.Parallel()

	batchID := "b4"
	repo := &fakeCandidateRepo{
		deleteFn: func(ctx context.Context, id string) (*string, bool, error) {
			if id != "c1" {
				t.Fatalf("id = %s, want c1", id)
			}
			return &batchID, true, nil
		},
	}

	publishCount := 0
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			publishCount++
			if queueName != "batch.re-review" {
				t.Fatalf("queue = %s, want batch.re-review", queueName)
			}
			if msg.Kind != queue.EventBatchReopened {
				t.Fatalf("kind = %s, want BATCH_REOPENED", msg.Kind)
			}
			if msg.BatchID != batchID {
				t.Fatalf("published batchId = %q, want %q", msg.BatchID, batchID)
			}
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	// Deleting a member of a sealed batch is a membership mutation and
	// must announce the reopen, same as removing it from the batch.
	if err := svc.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if publishCount != 1 {
		t.Fatalf("publish count = %d, want exactly 1", publishCount)
	}
}

func TestCandidateServiceDeleteUnbatchedSkipsPublish(t *testing.T) {
	t.Parallel()

	repo := &fakeCandidateRepo{
		deleteFn: func(ctx context.Context, id string) (*string, bool, error) {
			return nil, false, nil
		},
	}

	published := false
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			published = true
			return nil
		},
	}

	svc, err := NewCandidateService(repo, publisher, nil)
	if err != nil {
		t.Fatalf("NewCandidateService() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "c9"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if published {
		t.Fatal("deleting an unbatched candidate must not publish batch events")
	}
}
