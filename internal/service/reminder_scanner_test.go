package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"github.com/fleethr/recruit-review/internal/queue"
)

func TestReminderScannerScanStalePublishesPerBatch(t *testing.T) {
	t.Parallel()

	frozenNow := time.Date(2025, 8, 3, 12, 0, 0, 0, time.UTC)

	var gotCutoff time.Time
	var gotLimit int
	batches := &fakeBatchRepo{
		listStaleFn: func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Batch, error) {
			gotCutoff = olderThan
			gotLimit = limit
			return []domain.Batch{
				{ID: "b1", Status: domain.BatchStatusNeedsReReview},
				{ID: "b2", Status: domain.BatchStatusNeedsReReview},
			}, nil
		},
	}

	var published []string
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			if queueName != "batch.re-review-reminder" {
				t.Fatalf("queue = %s, want batch.re-review-reminder", queueName)
			}
			if msg.Kind != queue.EventReReviewReminder {
				t.Fatalf("kind = %s, want RE_REVIEW_REMINDER", msg.Kind)
			}
			published = append(published, msg.BatchID)
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, publisher, time.Minute, 24*time.Hour, 50, nil)
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return frozenNow }

	if err := scanner.scanStale(context.Background()); err != nil {
		t.Fatalf("scanStale() error = %v", err)
	}

	wantCutoff := frozenNow.Add(-24 * time.Hour)
	if !gotCutoff.Equal(wantCutoff) {
		t.Fatalf("cutoff = %v, want %v", gotCutoff, wantCutoff)
	}
	if gotLimit != 50 {
		t.Fatalf("limit = %d, want 50", gotLimit)
	}
	if len(published) != 2 || published[0] != "b1" || published[1] != "b2" {
		t.Fatalf("published = %v, want [b1 b2]", published)
	}
}

func TestReminderScannerScanStaleContinuesPastPublishFailure(t *testing.T) {
	t.Parallel()

	batches := &fakeBatchRepo{
		listStaleFn: func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{ID: "b1"},
				{ID: "b2"},
			}, nil
		},
	}

	var published []string
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.EventMessage) error {
			if msg.BatchID == "b1" {
				return errors.New("broker unavailable")
			}
			published = append(published, msg.BatchID)
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, publisher, time.Minute, time.Hour, 10, nil)
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}

	if err := scanner.scanStale(context.Background()); err != nil {
		t.Fatalf("scanStale() error = %v", err)
	}
	if len(published) != 1 || published[0] != "b2" {
		t.Fatalf("published = %v, want [b2]", published)
	}
}

func TestReminderScannerDefaults(t *testing.T) {
	t.Parallel()

	scanner, err := NewReminderScanner(&fakeBatchRepo{}, &fakePublisher{}, 0, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}

	if scanner.interval != defaultReminderScanInterval {
		t.Fatalf("interval = %v, want %v", scanner.interval, defaultReminderScanInterval)
	}
	if scanner.maxAge != defaultReminderMaxAge {
		t.Fatalf("maxAge = %v, want %v", scanner.maxAge, defaultReminderMaxAge)
	}
	if scanner.limit != defaultReminderScanLimit {
		t.Fatalf("limit = %v, want %v", scanner.limit, defaultReminderScanLimit)
	}
}
