package queue

import (
	"context"
	"fmt"
	"strings"
)

// Publisher publishes batch events to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg EventMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg EventMessage) error

// Consumer consumes batch events from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// EventKind classifies the batch events the core emits.
type EventKind string

const (
	// EventBatchReopened fires when a sealed batch falls back to
	// NEEDS_RE_REVIEW after a post-seal mutation.
	EventBatchReopened EventKind = "BATCH_REOPENED"
	// EventReviewCompleted fires after a successful full-review seal.
	EventReviewCompleted EventKind = "REVIEW_COMPLETED"
	// EventReReviewReminder fires for batches sitting in NEEDS_RE_REVIEW
	// past the configured age.
	EventReReviewReminder EventKind = "RE_REVIEW_REMINDER"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case EventBatchReopened, EventReviewCompleted, EventReReviewReminder:
		return true
	}
	return false
}

var supportedKinds = []EventKind{
	EventBatchReopened,
	EventReviewCompleted,
	EventReReviewReminder,
}

// QueueName returns the work queue name for an event kind, e.g.
// batch.re-review.
func QueueName(kind EventKind) string {
	switch kind {
	case EventBatchReopened:
		return "batch.re-review"
	case EventReviewCompleted:
		return "batch.review-completed"
	case EventReReviewReminder:
		return "batch.re-review-reminder"
	default:
		return strings.ToLower(kind.String())
	}
}

// DLQName returns the dead-letter queue name for an event kind.
func DLQName(kind EventKind) string {
	return fmt.Sprintf("dlq.%s", QueueName(kind))
}

// WorkQueueNames returns all event work queues.
func WorkQueueNames() []string {
	queues := make([]string, 0, len(supportedKinds))
	for _, kind := range supportedKinds {
		queues = append(queues, QueueName(kind))
	}
	return queues
}

// DLQNames returns all dead-letter queues.
func DLQNames() []string {
	queues := make([]string, 0, len(supportedKinds))
	for _, kind := range supportedKinds {
		queues = append(queues, DLQName(kind))
	}
	return queues
}
