// Package relay forwards collector-accepted events to a Kafka topic for
// downstream pipelines. Forwarding is best effort; the collector accepts
// events whether or not the relay keeps up.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
)

// KafkaRelay publishes accepted events with a synchronous produce so the
// caller learns about broker failures immediately.
type KafkaRelay struct {
	client *kgo.Client
	topic  string
}

func NewKafkaRelay(brokers []string, topic string) (*KafkaRelay, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("relay: create kafka client: %w", err)
	}
	return &KafkaRelay{client: client, topic: topic}, nil
}

// Forward publishes one event keyed by name so per-event-name ordering is
// preserved within a partition.
func (r *KafkaRelay) Forward(ctx context.Context, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("relay: marshal event %q: %w", ev.Name, err)
	}
	record := &kgo.Record{
		Topic:     r.topic,
		Key:       []byte(ev.Name),
		Value:     data,
		Timestamp: time.Now(),
	}
	if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("relay: produce event %q: %w", ev.Name, err)
	}
	return nil
}

func (r *KafkaRelay) Close() {
	r.client.Close()
}
