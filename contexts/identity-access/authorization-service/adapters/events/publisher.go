package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"aegis/contexts/identity-access/authorization-service/ports"
	sharedevents "aegis/internal/shared/events"

	"github.com/google/uuid"
)

// Bus is the platform message bus surface the publisher writes to.
type Bus interface {
	Publish(ctx context.Context, topic string, event sharedevents.Envelope) error
}

// Publisher wraps authorization events into the shared envelope and emits
// them on a topic matching the event type.
type Publisher struct {
	bus    Bus
	logger *slog.Logger
}

func NewPublisher(bus Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{bus: bus, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event ports.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	envelope := sharedevents.Envelope{
		EventID:       uuid.NewString(),
		EventType:     event.EventType,
		SourceService: event.Source,
		OccurredAtUTC: time.Now().UTC(),
		SchemaVersion: 1,
		Data:          data,
	}
	if err := p.bus.Publish(ctx, event.EventType, envelope); err != nil {
		return err
	}
	p.logger.Info("authorization event published",
		"event", "authz_event_published",
		"module", "identity-access/authorization-service",
		"layer", "adapter",
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
	)
	return nil
}

var _ ports.EventPublisher = (*Publisher)(nil)
