package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"github.com/fleethr/recruit-review/internal/observability"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CandidateService owns candidate CRUD and the batch-membership side
// effects of candidate mutations.
type CandidateService struct {
	candidates repository.CandidateRepository
	publisher  queue.Publisher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

type CandidateInput struct {
	Name          string
	Contact       string
	Email         string
	Department    string
	Location      string
	IsDuplicate   bool
	DuplicateOfID *string
}

type CandidateFieldsInput struct {
	Name       *string
	Contact    *string
	Email      *string
	Department *string
	Location   *string
}

func NewCandidateService(
	candidates repository.CandidateRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*CandidateService, error) {
	if candidates == nil {
		return nil, fmt.Errorf("candidate repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CandidateService{
		candidates: candidates,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

func (s *CandidateService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Create makes an unbatched candidate in PENDING_REVIEW.
func (s *CandidateService) Create(ctx context.Context, input CandidateInput) (*domain.Candidate, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	candidate := candidateFromInput(input)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, err
	}

	return candidate, nil
}

// AddToBatch creates a candidate attached to a batch. Membership growth
// on a sealed batch always reopens it.
func (s *CandidateService) AddToBatch(ctx context.Context, batchID string, input CandidateInput) (*domain.Candidate, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(batchID) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	candidate := candidateFromInput(input)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	reopened, err := s.candidates.CreateInBatch(ctx, strings.TrimSpace(batchID), candidate)
	if err != nil {
		return nil, err
	}

	if reopened {
		s.emitReopened(ctx, batchID, "member_added")
	}

	return candidate, nil
}

// RemoveFromBatch detaches and deletes a batch member. Removal from a
// sealed batch reopens it, same as growth.
func (s *CandidateService) RemoveFromBatch(ctx context.Context, batchID string, candidateID string) error {
	if strings.TrimSpace(batchID) == "" {
		return fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(candidateID) == "" {
		return fmt.Errorf("%w: candidate id is required", domain.ErrValidation)
	}

	reopened, err := s.candidates.RemoveFromBatch(ctx, strings.TrimSpace(batchID), strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}

	if reopened {
		s.emitReopened(ctx, batchID, "member_removed")
	}

	return nil
}

func (s *CandidateService) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: candidate id is required", domain.ErrValidation)
	}
	return s.candidates.GetByID(ctx, strings.TrimSpace(id))
}

func (s *CandidateService) ListByBatch(ctx context.Context, batchID string) ([]domain.Candidate, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	return s.candidates.ListByBatch(ctx, strings.TrimSpace(batchID))
}

// UpdateStatus commits a single review decision. It deliberately does not
// touch the owning batch; sealing is the review submission's second
// phase, kept explicit at the call site.
func (s *CandidateService) UpdateStatus(ctx context.Context, id string, rawStatus string, reviewerID string) (*domain.Candidate, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: candidate id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, fmt.Errorf("%w: reviewer id is required", domain.ErrValidation)
	}

	status, err := domain.ParseCandidateStatusFromString(rawStatus)
	if err != nil {
		return nil, err
	}

	candidate, err := s.candidates.UpdateStatus(ctx, strings.TrimSpace(id), status, strings.TrimSpace(reviewerID))
	if err != nil {
		return nil, err
	}

	s.metrics.IncCandidateDecision(status.String())
	return candidate, nil
}

// UpdateFields edits descriptive fields. Edits are membership-equivalent
// for the reopen rule.
func (s *CandidateService) UpdateFields(ctx context.Context, id string, input CandidateFieldsInput) (*domain.Candidate, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: candidate id is required", domain.ErrValidation)
	}

	if err := validateFieldsInput(input); err != nil {
		return nil, err
	}

	patch := repository.CandidatePatch{
		Name:       input.Name,
		Contact:    input.Contact,
		Email:      input.Email,
		Department: input.Department,
		Location:   input.Location,
	}

	candidate, reopened, err := s.candidates.UpdateFields(ctx, strings.TrimSpace(id), patch)
	if err != nil {
		return nil, err
	}

	if reopened && candidate.BatchID != nil {
		s.emitReopened(ctx, *candidate.BatchID, "member_edited")
	}

	return candidate, nil
}

// Delete removes a candidate outright. Deleting a member of a sealed
// batch is a membership mutation: the batch reopens, same as removal.
func (s *CandidateService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: candidate id is required", domain.ErrValidation)
	}

	batchID, reopened, err := s.candidates.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}

	if reopened && batchID != nil {
		s.emitReopened(ctx, *batchID, "member_deleted")
	}

	return nil
}

func candidateFromInput(input CandidateInput) *domain.Candidate {
	now := time.Now().UTC()
	return &domain.Candidate{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(input.Name),
		Contact:       strings.TrimSpace(input.Contact),
		Email:         strings.TrimSpace(input.Email),
		Department:    strings.TrimSpace(input.Department),
		Location:      strings.TrimSpace(input.Location),
		Status:        domain.CandidateStatusPendingReview,
		IsDuplicate:   input.IsDuplicate,
		DuplicateOfID: input.DuplicateOfID,
		CreatedAt:     now,
		LastEditedAt:  now,
	}
}

func validateFieldsInput(input CandidateFieldsInput) error {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return fmt.Errorf("%w: name cannot be cleared", domain.ErrValidation)
	}
	if input.Contact != nil && strings.TrimSpace(*input.Contact) == "" {
		return fmt.Errorf("%w: contact cannot be cleared", domain.ErrValidation)
	}
	if input.Location != nil && strings.TrimSpace(*input.Location) == "" {
		return fmt.Errorf("%w: location cannot be cleared", domain.ErrValidation)
	}
	return nil
}

func (s *CandidateService) emitReopened(ctx context.Context, batchID string, trigger string) {
	s.metrics.IncBatchReopened(trigger)

	if s.publisher == nil {
		return
	}

	msg := queue.EventMessage{
		EventID:    uuid.NewString(),
		Kind:       queue.EventBatchReopened,
		BatchID:    strings.TrimSpace(batchID),
		OccurredAt: time.Now().UTC(),
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		msg.CorrelationID = correlationID
	}

	if err := s.publisher.Publish(ctx, queue.QueueName(queue.EventBatchReopened), msg); err != nil {
		s.logger.Error("failed to publish re-review event",
			zap.String("batchId", batchID),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
	}
}
