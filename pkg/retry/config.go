package retry

import (
	"fmt"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// Config of a Retryer.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// MaxAttempts counts the first call too. 0 retries until ctx ends.
	MaxAttempts int `yaml:"max_attempts"`

	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	Backoff           BackoffStrategy `yaml:"backoff"`
	BackoffMultiplier float64         `yaml:"backoff_multiplier"` // exponential only; default 2.0

	// Jitter spreads each delay by ±Jitter of itself (0.0 - 1.0).
	Jitter float64 `yaml:"jitter"`

	// Retryable decides which errors are retried. Nil retries all.
	Retryable func(error) bool `yaml:"-"`

	// OnRetry is called before every wait.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// Validate checks the config and fills BackoffMultiplier.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}
	switch c.Backoff {
	case BackoffConstant, BackoffLinear, BackoffExponential:
	case "":
		c.Backoff = BackoffExponential
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.Backoff)
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2.0
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}

// DefaultConfig waits for a database that starts together with the service:
// five attempts, exponential from 1s up to 15s.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		MaxAttempts:       5,
		InitialDelay:      time.Second,
		MaxDelay:          15 * time.Second,
		Backoff:           BackoffExponential,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}
