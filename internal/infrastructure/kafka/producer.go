// Package kafka publishes assessment events to a Kafka topic.
package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Writer is the part of *kafkago.Writer the publisher depends on.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// WriterConfig describes the single topic assessment events go to.
type WriterConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// NewWriter builds a synchronous writer that waits for all in-sync
// replicas and makes a single delivery attempt. Messages with the same key
// hash to the same partition.
func NewWriter(cfg WriterConfig) *kafkago.Writer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  1,
	}
}
