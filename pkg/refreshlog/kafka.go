package refreshlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig of the Kafka sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // e.g. ["localhost:9092"]
	Topic   string   `yaml:"topic"`   // default "stockreport.refresh"
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per event, keyed by view so the events
// of a view stay in order within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates the writer. Connections are opened lazily on
// the first Publish.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("refreshlog: at least one broker address is required for Kafka")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "stockreport.refresh"
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	}
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

// Topic the events are written to.
func (p *KafkaPublisher) Topic() string { return p.topic }

// Publish writes ev synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.View),
		Value: payload,
		Time:  ev.FinishedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "status", Value: []byte(ev.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
