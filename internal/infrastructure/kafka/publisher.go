package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/bibbank/profileguard/internal/domain/event"
)

// Publisher implements port.EventPublisher on top of a Kafka writer.
type Publisher struct {
	w      Writer
	logger *slog.Logger
}

func NewPublisher(w Writer, logger *slog.Logger) *Publisher {
	return &Publisher{w: w, logger: logger}
}

// Publish writes all events in one batch, keyed by assessment ID.
func (p *Publisher) Publish(ctx context.Context, events ...interface{}) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(events))
	for i, e := range events {
		evt, ok := e.(event.DomainEvent)
		if !ok {
			return fmt.Errorf("kafka: cannot publish %T", e)
		}
		msg, err := encode(evt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: write %d events: %w", len(msgs), err)
	}
	p.logger.DebugContext(ctx, "events published", "count", len(msgs))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

func encode(evt event.DomainEvent) (kafkago.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("kafka: encode %s: %w", evt.EventType(), err)
	}
	return kafkago.Message{
		Key:   []byte(evt.AggregateID().String()),
		Value: body,
		Time:  evt.OccurredAt(),
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(evt.EventType())},
			{Key: "event_id", Value: []byte(evt.EventID().String())},
			{Key: "occurred_at", Value: []byte(evt.OccurredAt().UTC().Format(time.RFC3339Nano))},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}, nil
}
