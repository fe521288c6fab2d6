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
	"golang.org/x/sync/errgroup"
)

const minSubmitConcurrency = 1

// ConfirmStager holds stage tokens for the two-step all-denied confirm.
type ConfirmStager interface {
	Stage(ctx context.Context, batchID string, reviewerID string) (string, error)
	Consume(ctx context.Context, batchID string, reviewerID string, token string) (bool, error)
}

// ReviewService turns a reviewer's selection into committed candidate
// decisions and a sealed batch. Unselected members are rejected, not left
// undecided: there is no third outcome at submission time.
type ReviewService struct {
	batches     repository.BatchRepository
	candidates  repository.CandidateRepository
	publisher   queue.Publisher
	confirms    ConfirmStager
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

type SubmitReviewInput struct {
	BatchID     string
	ReviewerID  string
	ApprovedIDs []string
	// Revision is the batch revision the reviewer's session was built
	// from. When set, a mismatch with the stored revision fails the
	// submit instead of silently overwriting a concurrent session.
	Revision *int64
	// ConfirmToken authorizes an all-denied submission previously staged
	// by this reviewer.
	ConfirmToken string
}

type ReviewResult struct {
	Batch    *domain.Batch
	Approved int
	Rejected int
}

func NewReviewService(
	batches repository.BatchRepository,
	candidates repository.CandidateRepository,
	publisher queue.Publisher,
	confirms ConfirmStager,
	concurrency int,
	logger *zap.Logger,
) (*ReviewService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if candidates == nil {
		return nil, fmt.Errorf("candidate repository is required")
	}
	if confirms == nil {
		return nil, fmt.Errorf("confirm stager is required")
	}
	if concurrency < minSubmitConcurrency {
		concurrency = minSubmitConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReviewService{
		batches:     batches,
		candidates:  candidates,
		publisher:   publisher,
		confirms:    confirms,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (s *ReviewService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Submit commits a review pass in two phases: first every member's
// decision concurrently, then the batch seal. The seal happens only
// after all decision commits have settled successfully; any decision
// failure leaves the batch in its prior status.
func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*ReviewResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	batchID := strings.TrimSpace(input.BatchID)
	reviewerID := strings.TrimSpace(input.ReviewerID)
	if batchID == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	if reviewerID == "" {
		return nil, fmt.Errorf("%w: reviewer id is required", domain.ErrValidation)
	}

	start := s.now()

	// Freshness guard: review against the store's current batch, not a
	// possibly stale list-view copy.
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if input.Revision != nil && *input.Revision != batch.Revision {
		s.metrics.IncReviewSubmission("conflict")
		return nil, fmt.Errorf("%w: batch %s is at revision %d, review session saw %d",
			domain.ErrReviewConflict, batchID, batch.Revision, *input.Revision)
	}

	approved, err := partitionMembers(batch.Members, input.ApprovedIDs)
	if err != nil {
		return nil, err
	}

	// Gate on the resolved approve set, not the raw request list: a list
	// of blank ids is still a blanket rejection.
	if len(approved) == 0 && len(batch.Members) > 0 {
		if err := s.requireConfirmation(ctx, batchID, reviewerID, input.ConfirmToken); err != nil {
			return nil, err
		}
	}

	failures := s.commitDecisions(ctx, batch.Members, approved, reviewerID)
	if len(failures) > 0 {
		s.metrics.IncReviewSubmission("partial_failure")
		partial := &PartialReviewError{
			BatchID:  batchID,
			Total:    len(batch.Members),
			Failures: failures,
		}
		s.logger.Warn("review submit left batch unsealed",
			zap.String("batchId", batchID),
			zap.Int("failed", len(failures)),
			zap.Int("total", len(batch.Members)),
			zap.String("details", joinFailureDetails(failures)),
		)
		return nil, partial
	}

	sealed, err := s.batches.SetStatus(ctx, batchID, domain.BatchStatusReviewed, &batch.Revision)
	if err != nil {
		s.metrics.IncReviewSubmission("seal_failed")
		return nil, err
	}

	s.metrics.IncReviewSubmission("sealed")
	s.metrics.ObserveReviewSubmitDuration(s.now().Sub(start))

	s.emitReviewCompleted(ctx, batchID)

	return &ReviewResult{
		Batch:    sealed,
		Approved: len(approved),
		Rejected: len(batch.Members) - len(approved),
	}, nil
}

// partitionMembers resolves the approval subset against the batch roster.
// Every approved id must be a member; the deny set is everyone else.
func partitionMembers(members []domain.Candidate, approvedIDs []string) (map[string]struct{}, error) {
	roster := make(map[string]struct{}, len(members))
	for _, m := range members {
		roster[m.ID] = struct{}{}
	}

	approved := make(map[string]struct{}, len(approvedIDs))
	for _, raw := range approvedIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := roster[id]; !ok {
			return nil, fmt.Errorf("%w: candidate %s is not a member of the batch", domain.ErrValidation, id)
		}
		approved[id] = struct{}{}
	}

	return approved, nil
}

// requireConfirmation gates blanket rejection behind a second submit: no
// valid stage token means the submission is staged, not committed.
func (s *ReviewService) requireConfirmation(ctx context.Context, batchID string, reviewerID string, token string) error {
	ok, err := s.confirms.Consume(ctx, batchID, reviewerID, token)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	staged, err := s.confirms.Stage(ctx, batchID, reviewerID)
	if err != nil {
		return err
	}

	s.metrics.IncReviewSubmission("staged")
	return &ConfirmationRequiredError{
		BatchID:    batchID,
		StageToken: staged,
	}
}

// commitDecisions fans out one decision per member and waits for all of
// them to settle. No ordering is guaranteed among the commits; the only
// guarantee is the join barrier before the caller seals.
func (s *ReviewService) commitDecisions(
	ctx context.Context,
	members []domain.Candidate,
	approved map[string]struct{},
	reviewerID string,
) []CandidateFailure {
	results := make([]error, len(members))

	g := &errgroup.Group{}
	g.SetLimit(s.concurrency)

	for i := range members {
		member := members[i]
		idx := i

		status := domain.CandidateStatusRejected
		if _, ok := approved[member.ID]; ok {
			status = domain.CandidateStatusApproved
		}

		g.Go(func() error {
			_, err := s.candidates.UpdateStatus(ctx, member.ID, status, reviewerID)
			results[idx] = err
			if err == nil {
				s.metrics.IncCandidateDecision(status.String())
			}
			// A failed commit must not cancel its siblings; failures are
			// collected after the barrier.
			return nil
		})
	}

	_ = g.Wait()

	var failures []CandidateFailure
	for i, err := range results {
		if err != nil {
			failures = append(failures, CandidateFailure{
				CandidateID: members[i].ID,
				Err:         err,
			})
		}
	}

	return failures
}

// emitReviewCompleted tells list views to refresh. Outward notification
// only, never a status mutation.
func (s *ReviewService) emitReviewCompleted(ctx context.Context, batchID string) {
	if s.publisher == nil {
		return
	}

	msg := queue.EventMessage{
		EventID:    uuid.NewString(),
		Kind:       queue.EventReviewCompleted,
		BatchID:    batchID,
		OccurredAt: s.now().UTC(),
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		msg.CorrelationID = correlationID
	}

	if err := s.publisher.Publish(ctx, queue.QueueName(queue.EventReviewCompleted), msg); err != nil {
		s.logger.Error("failed to publish review-completed event",
			zap.String("batchId", batchID),
			zap.Error(err),
		)
	}
}
