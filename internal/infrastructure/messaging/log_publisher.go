// Package messaging holds the broker-less event publisher.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bibbank/profileguard/internal/domain/event"
)

// LogPublisher satisfies port.EventPublisher by logging each event. It is
// used when no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...interface{}) error {
	for _, e := range events {
		evt, ok := e.(event.DomainEvent)
		if !ok {
			return fmt.Errorf("messaging: cannot publish %T", e)
		}
		attrs := []any{
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID().String()),
			slog.String("assessment_id", evt.AggregateID().String()),
		}
		if p.logger.Enabled(ctx, slog.LevelDebug) {
			body, err := json.Marshal(evt)
			if err != nil {
				return fmt.Errorf("messaging: encode %s: %w", evt.EventType(), err)
			}
			attrs = append(attrs, slog.String("payload", string(body)))
		}
		p.logger.InfoContext(ctx, "event emitted", attrs...)
	}
	return nil
}
