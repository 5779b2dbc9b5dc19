// Package events publishes pricing decisions to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is used by services to publish events.
type Publisher interface {
	// Publish writes all messages in a single call.
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

// Message is one event and its partition key.
type Message struct {
	Key   string
	Value any
}

// DecisionEvent is emitted once per priced product of a successful batch.
type DecisionEvent struct {
	BatchID  string               `json:"batch_id"`
	PricedAt time.Time            `json:"priced_at"`
	Product  models.PricedProduct `json:"product"`
}

// KafkaPublisher writes JSON messages to a Kafka topic.
type KafkaPublisher struct {
	writer Writer
}

// batchTimeout caps how long the writer waits to fill a batch before flushing.
const batchTimeout = 10 * time.Millisecond

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batchTimeout,
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish marshals every value to JSON and writes them with one WriteMessages call.
// Nothing is written if any value fails to marshal.
func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", m.Key, err)
		}
		out = append(out, kafka.Message{Key: []byte(m.Key), Value: b})
	}

	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, msgs ...Message) error { return nil }

func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher when brokers are configured and a NopPublisher otherwise.
func New(brokers []string, topic string) Publisher {
	var addrs []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(addrs, topic)
}
