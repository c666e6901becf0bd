// Package resilience guards the database behind the report API with a
// circuit breaker: after a run of failures calls are rejected for a while
// instead of piling onto a sick store.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling the guarded function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// New validates config and returns a closed breaker.
func New(config Config) (*CircuitBreaker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit breaker config: %w", err)
	}
	return &CircuitBreaker{config: config, now: time.Now}, nil
}

// Execute runs fn unless the circuit is open. A panic in fn counts as a
// failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if !cb.config.Enabled {
		return fn(ctx)
	}

	generation, t, err := cb.beforeRequest()
	cb.notify(t)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.notify(cb.afterRequest(generation, false))
			panic(r)
		}
	}()

	err = fn(ctx)
	cb.notify(cb.afterRequest(generation, !cb.config.IsFailure(err)))
	return err
}

// State returns the current state, moving open to half-open when the
// timeout has passed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	t := cb.expire()
	s := cb.state
	cb.mu.Unlock()
	cb.notify(t)
	return s
}

// Counts returns the counters of the current state.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Name of the breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	t := cb.setState(StateClosed)
	cb.mu.Unlock()
	cb.notify(t)
}

func (cb *CircuitBreaker) String() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return fmt.Sprintf("CircuitBreaker(%s state=%s failures=%d/%d)",
		cb.config.Name, cb.state, cb.counts.ConsecutiveFailures, cb.config.MaxFailures)
}

func (cb *CircuitBreaker) beforeRequest() (uint64, *transition, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	t := cb.expire()
	if cb.state == StateOpen {
		return cb.generation, t, ErrCircuitOpen
	}
	cb.counts.Requests++
	return cb.generation, t, nil
}

func (cb *CircuitBreaker) afterRequest(generation uint64, success bool) *transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// The state changed while the call was running; its outcome is stale.
	if generation != cb.generation {
		return nil
	}

	if success {
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
			return cb.setState(StateClosed)
		}
		return nil
	}

	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0
	switch cb.state {
	case StateHalfOpen:
		return cb.setState(StateOpen)
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.config.MaxFailures {
			return cb.setState(StateOpen)
		}
	}
	return nil
}

// expire must be called with mu held.
func (cb *CircuitBreaker) expire() *transition {
	if cb.state == StateOpen && !cb.now().Before(cb.expiry) {
		return cb.setState(StateHalfOpen)
	}
	return nil
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(s State) *transition {
	if cb.state == s {
		return nil
	}
	t := &transition{from: cb.state, to: s}
	cb.state = s
	cb.generation++
	cb.counts = Counts{}
	if s == StateOpen {
		cb.expiry = cb.now().Add(cb.config.Timeout)
	}
	return t
}

func (cb *CircuitBreaker) notify(t *transition) {
	if t != nil && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, t.from, t.to)
	}
}
