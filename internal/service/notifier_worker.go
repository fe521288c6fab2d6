package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleethr/recruit-review/internal/observability"
	"github.com/fleethr/recruit-review/internal/provider"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/ratelimit"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minNotifierConcurrency = 1
	webhookLimiterScope    = "webhook"
)

// NotifierWorker drains the event queues and relays each event to the
// configured webhook endpoint. Every relay attempt is recorded, success
// or not. Transient relay failures are returned to the broker for
// redelivery; permanent failures are recorded and acked so the queue
// never wedges on a poison event.
type NotifierWorker struct {
	deliveries  repository.DeliveryRepository
	consumer    queue.Consumer
	provider    provider.Provider
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewNotifierWorker(
	deliveries repository.DeliveryRepository,
	consumer queue.Consumer,
	provider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*NotifierWorker, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if concurrency < minNotifierConcurrency {
		concurrency = minNotifierConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotifierWorker{
		deliveries:  deliveries,
		consumer:    consumer,
		provider:    provider,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *NotifierWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the event queues until context cancellation.
func (w *NotifierWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("notifier worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := w.consumer.Consume(groupCtx, queueName, w.processMessage)
			if err != nil {
				w.logger.Error("notifier worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("notifier worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (w *NotifierWorker) processMessage(ctx context.Context, msg queue.EventMessage) error {
	if err := msg.Validate(); err != nil {
		// Malformed messages cannot become deliverable by redelivery.
		w.logger.Warn("dropping malformed event message",
			zap.String("eventId", msg.EventID),
			zap.Error(err),
		)
		return nil
	}

	w.metrics.IncNotifierInFlight()
	defer w.metrics.DecNotifierInFlight()

	if w.rateLimiter != nil {
		if err := w.rateLimiter.Wait(ctx, webhookLimiterScope); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	event := provider.Event{
		EventID:    msg.EventID,
		Kind:       msg.Kind.String(),
		BatchID:    msg.BatchID,
		OccurredAt: msg.OccurredAt,
	}

	sendStart := w.now()
	providerResp, sendErr := w.provider.Send(ctx, event)
	w.metrics.ObserveWebhookDeliveryDuration(w.now().Sub(sendStart))

	if err := w.recordDelivery(ctx, msg, providerResp, sendErr); err != nil {
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}

	if sendErr == nil {
		w.metrics.IncWebhookDelivery(msg.Kind.String(), "delivered")
		return nil
	}

	if provider.IsTransient(sendErr) {
		w.metrics.IncWebhookDelivery(msg.Kind.String(), "retried")
		return fmt.Errorf("transient webhook relay failure: %w", sendErr)
	}

	w.metrics.IncWebhookDelivery(msg.Kind.String(), "failed")
	w.logger.Error("permanent webhook relay failure, event dropped",
		zap.String("eventId", msg.EventID),
		zap.String("kind", msg.Kind.String()),
		zap.String("batchId", msg.BatchID),
		zap.Error(sendErr),
	)
	return nil
}

func (w *NotifierWorker) recordDelivery(
	ctx context.Context,
	msg queue.EventMessage,
	providerResp *provider.ProviderResponse,
	sendErr error,
) error {
	var statusCode *int
	var deliveryErr *string

	if providerResp != nil && providerResp.StatusCode > 0 {
		value := providerResp.StatusCode
		statusCode = &value
	}

	if sendErr != nil {
		value := sendErr.Error()
		deliveryErr = &value

		var providerErr *provider.ProviderError
		if errors.As(sendErr, &providerErr) && providerErr.StatusCode > 0 && statusCode == nil {
			value := providerErr.StatusCode
			statusCode = &value
		}
	}

	delivery := &repository.WebhookDelivery{
		ID:         uuid.NewString(),
		EventID:    strings.TrimSpace(msg.EventID),
		EventKind:  msg.Kind.String(),
		BatchID:    msg.BatchID,
		StatusCode: statusCode,
		Error:      deliveryErr,
		CreatedAt:  w.now().UTC(),
	}

	return w.deliveries.Create(ctx, delivery)
}
