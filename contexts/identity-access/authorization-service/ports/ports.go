package ports

import (
	"context"
	"time"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for audit and permission records.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventDedupStore enforces idempotent processing for consumed lifecycle
// events. ReserveEvent returns true when the event was already processed.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
