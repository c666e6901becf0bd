package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config tunes a circuit breaker.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"-"`

	// MaxFailures consecutive failures open the circuit.
	MaxFailures uint32 `yaml:"max_failures"`

	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration `yaml:"timeout"`

	// SuccessThreshold trial successes in half-open close the circuit.
	SuccessThreshold uint32 `yaml:"success_threshold"`

	// OnStateChange is called synchronously after every transition,
	// outside the breaker lock.
	OnStateChange func(name string, from, to State) `yaml:"-"`

	// IsFailure decides which errors count against the circuit.
	// Nil counts every error except context cancellation.
	IsFailure func(err error) bool `yaml:"-"`
}

// DefaultConfig returns an enabled breaker: 5 failures, 30s open.
func DefaultConfig(name string) Config {
	return Config{
		Enabled:          true,
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 1,
	}
}

// Validate fills optional fields and rejects unusable values.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxFailures == 0 {
		return fmt.Errorf("max_failures must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 1
	}
	if c.Name == "" {
		c.Name = "circuit-breaker"
	}
	if c.IsFailure == nil {
		c.IsFailure = defaultIsFailure
	}
	return nil
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
