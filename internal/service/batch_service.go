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

// BatchService owns batch CRUD and batch-level status transitions. Any
// mutation that reopens a sealed batch emits exactly one re-review event.
type BatchService struct {
	batches   repository.BatchRepository
	publisher queue.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

type CreateBatchInput struct {
	Name        string
	AssignedTo  string
	SubmittedBy string
	Status      string
}

type UpdateBatchInput struct {
	Name       *string
	AssignedTo *string
	Status     *string
}

func NewBatchService(
	batches repository.BatchRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*BatchService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchService{
		batches:   batches,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (s *BatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *BatchService) Create(ctx context.Context, input CreateBatchInput) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	role, err := domain.ParseReviewerRoleFromString(input.AssignedTo)
	if err != nil {
		return nil, err
	}

	status := domain.BatchStatusNew
	if strings.TrimSpace(input.Status) != "" {
		status, err = domain.ParseBatchStatusFromString(input.Status)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	batch := &domain.Batch{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Status:       status,
		AssignedTo:   role,
		SubmittedBy:  strings.TrimSpace(input.SubmittedBy),
		CreatedAt:    now,
		LastEditedAt: now,
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	return batch, nil
}

func (s *BatchService) Get(ctx context.Context, id string) (*domain.Batch, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	return s.batches.GetByID(ctx, strings.TrimSpace(id))
}

func (s *BatchService) List(ctx context.Context, params repository.ListParams) ([]domain.Batch, int64, error) {
	return s.batches.List(ctx, params)
}

func (s *BatchService) ListBySubmitter(ctx context.Context, submitterID string) ([]domain.Batch, error) {
	if strings.TrimSpace(submitterID) == "" {
		return nil, fmt.Errorf("%w: submitter id is required", domain.ErrValidation)
	}
	return s.batches.ListBySubmitter(ctx, strings.TrimSpace(submitterID))
}

// Update applies a partial update. A sealed batch reopens no matter what
// status the patch asked for.
func (s *BatchService) Update(ctx context.Context, id string, input UpdateBatchInput) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	patch := repository.BatchPatch{Name: input.Name}

	if input.AssignedTo != nil {
		role, err := domain.ParseReviewerRoleFromString(*input.AssignedTo)
		if err != nil {
			return nil, err
		}
		patch.AssignedTo = &role
	}
	if input.Status != nil {
		status, err := domain.ParseBatchStatusFromString(*input.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}

	batch, reopened, err := s.batches.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if reopened {
		s.emitReopened(ctx, batch.ID, "batch_update")
	}

	return batch, nil
}

// SetStatus transitions a batch to an explicit status. The status must be
// a member of the enum; anything else is rejected before persistence.
func (s *BatchService) SetStatus(ctx context.Context, id string, rawStatus string, expectedRevision *int64) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	status, err := domain.ParseBatchStatusFromString(rawStatus)
	if err != nil {
		return nil, err
	}

	return s.batches.SetStatus(ctx, id, status, expectedRevision)
}

// Delete removes a batch and its members as one failure domain.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	return s.batches.DeleteCascade(ctx, strings.TrimSpace(id))
}

// emitReopened publishes the re-review event. Publish failures are logged
// and dropped: the transition is already durable, and notification is a
// need, not a precondition.
func (s *BatchService) emitReopened(ctx context.Context, batchID string, trigger string) {
	s.metrics.IncBatchReopened(trigger)

	if s.publisher == nil {
		return
	}

	msg := queue.EventMessage{
		EventID:    uuid.NewString(),
		Kind:       queue.EventBatchReopened,
		BatchID:    batchID,
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
