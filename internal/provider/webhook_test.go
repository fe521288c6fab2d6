package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func sampleEvent() Event {
	return Event{
		EventID:    "6f4c2a90-bb1c-4a7d-9a57-2f8b1e3a4c55",
		Kind:       "BATCH_REOPENED",
		BatchID:    "0d9a3b8e-11f2-4a6b-8c3d-5e7f9a1b2c3d",
		OccurredAt: time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestWebhookProviderSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody webhookRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("X-Request-ID", "relay-req-1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	p, err := NewWebhookProvider(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookProvider() error = %v", err)
	}

	event := sampleEvent()

	resp, err := p.Send(context.Background(), event)
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	if resp.RequestID != "relay-req-1" {
		t.Fatalf("RequestID = %q, want %q", resp.RequestID, "relay-req-1")
	}

	if gotBody.Event != event.Kind {
		t.Fatalf("request.event = %q, want %q", gotBody.Event, event.Kind)
	}
	if gotBody.BatchID != event.BatchID {
		t.Fatalf("request.batchId = %q, want %q", gotBody.BatchID, event.BatchID)
	}
	if gotBody.OccurredAt != "2025-07-14T09:30:00Z" {
		t.Fatalf("request.occurredAt = %q, want RFC3339 timestamp", gotBody.OccurredAt)
	}
}

func TestWebhookProviderSendStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "internal server error is transient", statusCode: http.StatusInternalServerError, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("relay failed"))
			}))
			defer server.Close()

			p, err := NewWebhookProvider(server.URL)
			if err != nil {
				t.Fatalf("NewWebhookProvider() error = %v", err)
			}

			_, err = p.Send(context.Background(), sampleEvent())
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			if providerErr.StatusCode != tc.statusCode {
				t.Fatalf("ProviderError.StatusCode = %d, want %d", providerErr.StatusCode, tc.statusCode)
			}
		})
	}
}

func TestWebhookProviderSendTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	p, err := NewWebhookProviderWithClient(server.URL, client)
	if err != nil {
		t.Fatalf("NewWebhookProviderWithClient() error = %v", err)
	}

	_, err = p.Send(context.Background(), sampleEvent())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false for timeout, want true")
	}
}

func TestWebhookProviderRejectsInvalidEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookProvider("  "); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewWebhookProvider("::not-a-url"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}
