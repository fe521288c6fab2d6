package queue

import (
	"fmt"
	"strings"
	"time"
)

// EventMessage is the broker payload for batch events. The core emits the
// need for a notification; delivery is the consumer's concern.
type EventMessage struct {
	EventID       string    `json:"eventId"`
	Kind          EventKind `json:"kind"`
	BatchID       string    `json:"batchId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (m EventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid event kind %q", m.Kind)
	}
	if strings.TrimSpace(m.BatchID) == "" {
		return fmt.Errorf("batchId is required")
	}
	return nil
}
