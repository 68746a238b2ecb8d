package kafka

import (
	"context"
	"log/slog"

	"github.com/bibbank/fraud-detection/pkg/events"
)

// LogPublisher implements port.EventPublisher by logging events. It stands
// in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event at debug level and never fails.
func (p *LogPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for _, evt := range domainEvents {
		p.logger.DebugContext(ctx, "event not published, no brokers configured",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID().String()),
			slog.String("payload", string(evt.Payload())),
		)
	}
	return nil
}
