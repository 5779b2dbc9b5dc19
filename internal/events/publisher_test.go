package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// fakeWriter is a test writer that records messages written.
type fakeWriter struct {
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)

	event := DecisionEvent{
		BatchID:  "batch-1",
		PricedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Product: models.PricedProduct{
			ProductSnapshot: models.ProductSnapshot{ProductID: "P001", BasePrice: 100},
			PricingDecision: &models.PricingDecision{AdjustedPrice: 120},
		},
	}
	if err := p.Publish(context.Background(), Message{Key: "P001", Value: event}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fw.msgs))
	}

	msg := fw.msgs[0]
	if string(msg.Key) != "P001" {
		t.Errorf("key = %s, want P001", msg.Key)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["batch_id"] != "batch-1" {
		t.Errorf("batch_id = %v", decoded["batch_id"])
	}
	product, ok := decoded["product"].(map[string]interface{})
	if !ok || product["adjusted_price"] != 120.0 {
		t.Errorf("product = %v, want adjusted_price 120", decoded["product"])
	}

	if err := p.Close(); err != nil || !fw.closed {
		t.Errorf("Close() err = %v closed = %v", err, fw.closed)
	}
}

func TestKafkaPublisher_Errors(t *testing.T) {
	t.Run("writer failure", func(t *testing.T) {
		writeErr := errors.New("broker down")
		p := NewKafkaPublisherWithWriter(&fakeWriter{err: writeErr})
		if err := p.Publish(context.Background(), Message{Key: "k", Value: "v"}); !errors.Is(err, writeErr) {
			t.Errorf("Publish() error = %v, want %v", err, writeErr)
		}
	})

	t.Run("unmarshalable value", func(t *testing.T) {
		fw := &fakeWriter{}
		p := NewKafkaPublisherWithWriter(fw)
		msgs := []Message{{Key: "a", Value: "ok"}, {Key: "b", Value: make(chan int)}}
		if err := p.Publish(context.Background(), msgs...); err == nil {
			t.Error("expected marshal error")
		}
		if fw.calls != 0 || len(fw.msgs) != 0 {
			t.Error("nothing should be written on marshal failure")
		}
	})
}

func TestKafkaPublisher_PublishBatchInOneWrite(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)

	msgs := []Message{
		{Key: "P001", Value: map[string]int{"n": 1}},
		{Key: "P002", Value: map[string]int{"n": 2}},
		{Key: "P003", Value: map[string]int{"n": 3}},
	}
	if err := p.Publish(context.Background(), msgs...); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if fw.calls != 1 {
		t.Errorf("WriteMessages called %d times, want 1", fw.calls)
	}
	if len(fw.msgs) != 3 {
		t.Fatalf("wrote %d messages, want 3", len(fw.msgs))
	}
	for i, want := range []string{"P001", "P002", "P003"} {
		if string(fw.msgs[i].Key) != want {
			t.Errorf("message %d key = %s, want %s", i, fw.msgs[i].Key, want)
		}
	}

	if err := p.Publish(context.Background()); err != nil || fw.calls != 1 {
		t.Errorf("empty publish: err = %v, calls = %d", err, fw.calls)
	}
}

func TestNewKafkaPublisher_ShortBatchTimeout(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "pricing")
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("writer = %T, want *kafka.Writer", p.writer)
	}
	if w.BatchTimeout != batchTimeout {
		t.Errorf("BatchTimeout = %v, want %v", w.BatchTimeout, batchTimeout)
	}
	if w.BatchTimeout >= time.Second {
		t.Errorf("BatchTimeout %v would delay every synchronous write", w.BatchTimeout)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(nil, "pricing").(NopPublisher); !ok {
		t.Error("expected NopPublisher without brokers")
	}
	if _, ok := New([]string{" ", ""}, "pricing").(NopPublisher); !ok {
		t.Error("expected NopPublisher for blank brokers")
	}

	p := New([]string{"localhost:9092"}, "pricing")
	if _, ok := p.(*KafkaPublisher); !ok {
		t.Errorf("expected *KafkaPublisher, got %T", p)
	}
	p.Close()
}
