package refreshlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher writes events with SET + PUBLISH:
//
//	SET      <prefix>:view:<name>:state  <JSON>  EX <ttl>   last outcome
//	PUBLISH  <prefix>:view:<name>        <JSON>             event stream
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisPublisher wraps an existing client. The publisher owns it and
// closes it on Close.
func NewRedisPublisher(client redis.UniversalClient, cfg Config) *RedisPublisher {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "stockreport"
	}
	return &RedisPublisher{
		client: client,
		prefix: prefix,
		ttl:    time.Duration(cfg.TTL) * time.Second,
	}
}

// StateKey is the key holding the last outcome of view.
func (p *RedisPublisher) StateKey(view string) string {
	return fmt.Sprintf("%s:view:%s:state", p.prefix, view)
}

// Channel is the pub/sub channel of view.
func (p *RedisPublisher) Channel(view string) string {
	return fmt.Sprintf("%s:view:%s", p.prefix, view)
}

// Publish stores ev as the view state and broadcasts it.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Set(ctx, p.StateKey(ev.View), payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(ev.View), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Last reads the stored state of view. redis.Nil means none yet.
func (p *RedisPublisher) Last(ctx context.Context, view string) (Event, error) {
	var ev Event
	data, err := p.client.Get(ctx, p.StateKey(view)).Bytes()
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode state: %w", err)
	}
	return ev, nil
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
