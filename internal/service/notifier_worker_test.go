package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleethr/recruit-review/internal/provider"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
	"go.uber.org/zap"
)

func sampleEventMessage() queue.EventMessage {
	return queue.EventMessage{
		EventID:    "e1",
		Kind:       queue.EventBatchReopened,
		BatchID:    "b1",
		OccurredAt: time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifierWorkerProcessMessageSuccess(t *testing.T) {
	t.Parallel()

	var gotDelivery *repository.WebhookDelivery
	deliveries := &fakeDeliveryRepo{
		createFn: func(ctx context.Context, d *repository.WebhookDelivery) error {
			gotDelivery = d
			return nil
		},
	}
	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, event provider.Event) (*provider.ProviderResponse, error) {
			if event.Kind != "BATCH_REOPENED" {
				t.Fatalf("event kind = %s, want BATCH_REOPENED", event.Kind)
			}
			if event.BatchID != "b1" {
				t.Fatalf("event batchId = %s, want b1", event.BatchID)
			}
			return &provider.ProviderResponse{StatusCode: 202, Body: `{"ok":true}`}, nil
		},
	}
	limiter := &fakeRateLimiter{
		waitFn: func(ctx context.Context, scope string) error {
			if scope != "webhook" {
				t.Fatalf("scope = %q, want webhook", scope)
			}
			return nil
		},
	}

	worker, err := NewNotifierWorker(deliveries, &fakeConsumer{}, providerClient, limiter, 3, zap.NewNop())
	if err != nil {
		t.Fatalf("NewNotifierWorker() error = %v", err)
	}

	if err := worker.processMessage(context.Background(), sampleEventMessage()); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}

	if gotDelivery == nil {
		t.Fatal("delivery should be recorded")
	}
	if gotDelivery.StatusCode == nil || *gotDelivery.StatusCode != 202 {
		t.Fatalf("delivery status code = %v, want 202", gotDelivery.StatusCode)
	}
	if gotDelivery.Error != nil {
		t.Fatalf("delivery error = %v, want nil", *gotDelivery.Error)
	}
}

func TestNotifierWorkerProcessMessageTransientFailureRequeues(t *testing.T) {
	t.Parallel()

	recorded := false
	deliveries := &fakeDeliveryRepo{
		createFn: func(ctx context.Context, d *repository.WebhookDelivery) error {
			recorded = true
			if d.StatusCode == nil || *d.StatusCode != 503 {
				t.Fatalf("delivery status code = %v, want 503", d.StatusCode)
			}
			if d.Error == nil {
				t.Fatal("delivery error should be recorded")
			}
			return nil
		},
	}
	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, event provider.Event) (*provider.ProviderResponse, error) {
			return nil, &provider.ProviderError{
				StatusCode: 503,
				Message:    "relay briefly down",
				Transient:  true,
			}
		},
	}

	worker, err := NewNotifierWorker(deliveries, &fakeConsumer{}, providerClient, &fakeRateLimiter{}, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewNotifierWorker() error = %v", err)
	}

	err = worker.processMessage(context.Background(), sampleEventMessage())
	if err == nil {
		t.Fatal("transient failure should be returned for redelivery")
	}
	if !recorded {
		t.Fatal("the failed attempt should still be recorded")
	}
}

func TestNotifierWorkerProcessMessagePermanentFailureAcks(t *testing.T) {
	t.Parallel()

	recorded := false
	deliveries := &fakeDeliveryRepo{
		createFn: func(ctx context.Context, d *repository.WebhookDelivery) error {
			recorded = true
			return nil
		},
	}
	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, event provider.Event) (*provider.ProviderResponse, error) {
			return nil, &provider.ProviderError{
				StatusCode: 400,
				Message:    "relay rejected payload",
				Transient:  false,
			}
		},
	}

	worker, err := NewNotifierWorker(deliveries, &fakeConsumer{}, providerClient, &fakeRateLimiter{}, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewNotifierWorker() error = %v", err)
	}

	if err := worker.processMessage(context.Background(), sampleEventMessage()); err != nil {
		t.Fatalf("processMessage() error = %v, permanent failures should ack", err)
	}
	if !recorded {
		t.Fatal("the failed attempt should still be recorded")
	}
}

func TestNotifierWorkerProcessMessageDropsMalformed(t *testing.T) {
	t.Parallel()

	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, event provider.Event) (*provider.ProviderResponse, error) {
			t.Fatal("relay should not be called for malformed messages")
			return nil, nil
		},
	}

	worker, err := NewNotifierWorker(&fakeDeliveryRepo{}, &fakeConsumer{}, providerClient, &fakeRateLimiter{}, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewNotifierWorker() error = %v", err)
	}

	if err := worker.processMessage(context.Background(), queue.EventMessage{Kind: "UNKNOWN"}); err != nil {
		t.Fatalf("processMessage() error = %v, malformed messages should be dropped", err)
	}
}

func TestNotifierWorkerProcessMessageRecordFailureRequeues(t *testing.T) {
	t.Parallel()

	deliveries := &fakeDeliveryRepo{
		createFn: func(ctx context.Context, d *repository.WebhookDelivery) error {
			return errors.New("database unavailable")
		},
	}

	worker, err := NewNotifierWorker(deliveries, &fakeConsumer{}, &fakeProvider{}, &fakeRateLimiter{}, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewNotifierWorker() error = %v", err)
	}

	if err := worker.processMessage(context.Background(), sampleEventMessage()); err == nil {
		t.Fatal("a delivery that cannot be recorded should be redelivered")
	}
}
