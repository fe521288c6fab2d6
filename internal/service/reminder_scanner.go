package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultReminderScanInterval = 5 * time.Minute
	defaultReminderMaxAge       = 24 * time.Hour
	defaultReminderScanLimit    = 100
)

// ReminderScanner periodically nudges reviewers about batches parked in
// NEEDS_RE_REVIEW. It only publishes reminder events; it never touches
// batch state.
type ReminderScanner struct {
	batches   repository.BatchRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	maxAge    time.Duration
	limit     int
	now       func() time.Time
}

func NewReminderScanner(
	batches repository.BatchRepository,
	publisher queue.Publisher,
	interval time.Duration,
	maxAge time.Duration,
	limit int,
	logger *zap.Logger,
) (*ReminderScanner, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultReminderScanInterval
	}
	if maxAge <= 0 {
		maxAge = defaultReminderMaxAge
	}
	if limit <= 0 {
		limit = defaultReminderScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderScanner{
		batches:   batches,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		maxAge:    maxAge,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (s *ReminderScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.scanStale(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("reminder initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanStale(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("reminder scan failed", zap.Error(err))
			}
		}
	}
}

func (s *ReminderScanner) scanStale(ctx context.Context) error {
	cutoff := s.now().Add(-s.maxAge)

	stale, err := s.batches.ListStaleNeedsReReview(ctx, cutoff, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale re-review batches: %w", err)
	}

	for i := range stale {
		batch := stale[i]
		msg := queue.EventMessage{
			EventID:    uuid.NewString(),
			Kind:       queue.EventReReviewReminder,
			BatchID:    batch.ID,
			OccurredAt: s.now().UTC(),
		}

		queueName := queue.QueueName(queue.EventReReviewReminder)
		if err := s.publisher.Publish(ctx, queueName, msg); err != nil {
			s.logger.Error("failed to enqueue re-review reminder",
				zap.String("batchId", batch.ID),
				zap.String("queue", queueName),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("re-review reminder enqueued",
			zap.String("batchId", batch.ID),
			zap.Time("lastEditedAt", batch.LastEditedAt),
		)
	}

	return nil
}
