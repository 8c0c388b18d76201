package events

import (
	"encoding/json"
	"time"
)

// Envelope is the shared lifecycle event shape carried on the message bus.
// Align fields with the platform canonical event contract.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAtUTC time.Time       `json:"occurred_at_utc"`
	CorrelationID string          `json:"correlation_id"`
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}
