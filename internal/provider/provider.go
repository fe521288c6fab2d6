package provider

import (
	"context"
	"time"
)

// Event is the outbound payload handed to a notification relay.
type Event struct {
	EventID    string
	Kind       string
	BatchID    string
	OccurredAt time.Time
}

// Provider is the outbound notification relay port.
type Provider interface {
	Send(ctx context.Context, event Event) (*ProviderResponse, error)
}

// ProviderResponse stores relay call metadata for audit and persistence.
type ProviderResponse struct {
	StatusCode int
	Body       string
	RequestID  string
}
