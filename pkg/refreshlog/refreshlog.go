// Package refreshlog publishes the outcome of every dashboard refresh so
// other processes can poll the last state of a view or subscribe to refresh
// events. Redis keeps the last state per view; Kafka and RabbitMQ receive
// the same events as a stream.
package refreshlog

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is one refresh outcome.
type Event struct {
	View       string    `json:"view"`
	Report     string    `json:"report"`
	Filter     string    `json:"filter,omitempty"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Records    int       `json:"records"`
	Error      *string   `json:"error,omitempty"`
}

// Config selects the sinks. Every sink left empty is disabled.
type Config struct {
	Address  string `yaml:"address"` // Redis
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // seconds; 0 keeps the state key forever
	Prefix   string `yaml:"prefix"`

	Kafka KafkaConfig `yaml:"kafka"`
	AMQP  AMQPConfig  `yaml:"amqp"`
}

// Publisher receives refresh outcomes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New connects every configured sink. Without any it returns Nop; with one
// it returns that publisher directly.
func New(cfg Config) (Publisher, error) {
	var pubs Multi

	if cfg.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		pubs = append(pubs, NewRedisPublisher(client, cfg))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			_ = pubs.Close()
			return nil, err
		}
		pubs = append(pubs, k)
	}
	if cfg.AMQP.URL != "" {
		a, err := DialAMQP(cfg.AMQP)
		if err != nil {
			_ = pubs.Close()
			return nil, err
		}
		pubs = append(pubs, a)
	}

	switch len(pubs) {
	case 0:
		return Nop{}, nil
	case 1:
		return pubs[0], nil
	}
	return pubs, nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans an event out to every publisher. One failing sink does not
// stop the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
