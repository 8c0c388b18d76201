package ports

import "context"

// Event is the outbound authorization event shape.
type Event struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// EventPublisher emits authorization events through the bus adapter.
// Publication is fire-and-forget: failures are logged by callers and never
// alter an already-computed decision.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
