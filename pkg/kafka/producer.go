package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lexiconlabs/resolution-platform/pkg/config"
)

// Event is a keyed JSON payload. The key routes all events for one word to
// the same partition so mint and outcome records stay ordered.
type Event struct {
	Key   string
	Value any
}

// Producer publishes events to one topic with synchronous acks.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer: writer,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish sends one event.
func (p *Producer) Publish(ctx context.Context, ev Event) error {
	return p.PublishBatch(ctx, []Event{ev})
}

// PublishBatch sends events in one write so a resolution pass's outcomes
// land together.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(events))
	for i, ev := range events {
		payload, err := json.Marshal(ev.Value)
		if err != nil {
			return fmt.Errorf("encode event %q: %w", ev.Key, err)
		}
		msgs[i] = kafka.Message{Key: []byte(ev.Key), Value: payload}
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and shuts the writer down.
func (p *Producer) Close() error {
	return p.writer.Close()
}
