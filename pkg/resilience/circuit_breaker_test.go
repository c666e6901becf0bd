package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(t *testing.T, config Config) (*CircuitBreaker, *fakeClock) {
	t.Helper()
	cb, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create circuit breaker: %v", err)
	}
	clock := &fakeClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	cb.now = clock.Now
	return cb, clock
}

var errStore = errors.New("store down")

func fail(context.Context) error    { return errStore }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 3
	cb, _ := newTestBreaker(t, config)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(context.Background(), fail); !errors.Is(err, errStore) {
			t.Fatalf("call %d: expected store error, got %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected StateOpen, got %v", cb.State())
	}

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("function must not run while open")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 2
	cb, _ := newTestBreaker(t, config)

	cb.Execute(context.Background(), fail)
	cb.Execute(context.Background(), succeed)
	cb.Execute(context.Background(), fail)

	if cb.State() != StateClosed {
		t.Errorf("Expected StateClosed, got %v", cb.State())
	}
	if got := cb.Counts().ConsecutiveFailures; got != 1 {
		t.Errorf("Expected 1 consecutive failure, got %d", got)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 1
	config.Timeout = time.Minute
	config.SuccessThreshold = 2

	var transitions []string
	config.OnStateChange = func(name string, from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	}
	cb, clock := newTestBreaker(t, config)

	cb.Execute(context.Background(), fail)
	clock.Advance(59 * time.Second)
	if cb.State() != StateOpen {
		t.Fatalf("Expected StateOpen before timeout, got %v", cb.State())
	}

	clock.Advance(time.Second)
	if err := cb.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected StateHalfOpen after one trial, got %v", cb.State())
	}
	cb.Execute(context.Background(), succeed)
	if cb.State() != StateClosed {
		t.Fatalf("Expected StateClosed, got %v", cb.State())
	}

	want := []string{"closed>open", "open>half-open", "half-open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: got %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 1
	config.Timeout = time.Second
	cb, clock := newTestBreaker(t, config)

	cb.Execute(context.Background(), fail)
	clock.Advance(time.Second)
	cb.Execute(context.Background(), fail)

	if cb.State() != StateOpen {
		t.Errorf("Expected StateOpen, got %v", cb.State())
	}
}

func TestCircuitBreaker_CancellationIsNotFailure(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 1
	cb, _ := newTestBreaker(t, config)

	cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if cb.State() != StateClosed {
		t.Errorf("Expected StateClosed, got %v", cb.State())
	}
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 1
	cb, _ := newTestBreaker(t, config)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic must propagate")
			}
		}()
		cb.Execute(context.Background(), func(context.Context) error { panic("boom") })
	}()

	if cb.State() != StateOpen {
		t.Errorf("Expected StateOpen, got %v", cb.State())
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 10; i++ {
		cb.Execute(context.Background(), fail)
	}
	if err := cb.Execute(context.Background(), succeed); err != nil {
		t.Errorf("disabled breaker must pass calls through, got %v", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	config := DefaultConfig("test")
	config.MaxFailures = 1
	cb, _ := newTestBreaker(t, config)

	cb.Execute(context.Background(), fail)
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("Expected StateClosed after reset, got %v", cb.State())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig("x"), false},
		{"no failures", Config{Enabled: true, Timeout: time.Second}, true},
		{"no timeout", Config{Enabled: true, MaxFailures: 1}, true},
		{"disabled ignores values", Config{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
