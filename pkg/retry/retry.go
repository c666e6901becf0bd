// Package retry repeats an operation with backoff until it succeeds, the
// attempts run out or the context ends.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Func is an operation that can be retried.
type Func func(ctx context.Context) error

// Retryer runs a Func under a Config.
type Retryer struct {
	config Config
}

// New validates cfg and returns a Retryer.
func New(cfg Config) (*Retryer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{config: cfg}, nil
}

// Do calls fn until it succeeds. A disabled Retryer calls it once.
func (r *Retryer) Do(ctx context.Context, fn Func) error {
	if !r.config.Enabled {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if r.config.Retryable != nil && !r.config.Retryable(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("context cancelled during retry: %w", err)
		}
	}
}

// delay before attempt+1.
func (r *Retryer) delay(attempt int) time.Duration {
	var d time.Duration
	switch r.config.Backoff {
	case BackoffLinear:
		d = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		d = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1)))
	default:
		d = r.config.InitialDelay
	}
	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}

	if r.config.Jitter > 0 {
		d += time.Duration(float64(d) * r.config.Jitter * (rand.Float64()*2 - 1))
		if d < 0 {
			d = r.config.InitialDelay
		}
	}
	return d
}
