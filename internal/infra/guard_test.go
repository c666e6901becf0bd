package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/resilience"
)

type failingStore struct {
	calls int
	pings int
}

func (f *failingStore) Inventory(context.Context) ([]report.InventoryRecord, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func (f *failingStore) Sales(context.Context, report.DateFilter) ([]report.SalesRecord, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func (f *failingStore) Ping(context.Context) error { f.pings++; return nil }
func (f *failingStore) Close() error               { return nil }

func TestGuard_OpensAfterFailures(t *testing.T) {
	cfg := resilience.DefaultConfig("test-store")
	cfg.MaxFailures = 2
	cfg.Timeout = time.Hour

	var transitions []resilience.State
	cfg.OnStateChange = func(_ string, _, to resilience.State) { transitions = append(transitions, to) }

	cb, err := NewBreaker(cfg)
	if err != nil {
		t.Fatalf("NewBreaker: %v", err)
	}
	raw := &failingStore{}
	s := Guard(raw, cb)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Sales(ctx, report.FilterAll); err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := s.Inventory(ctx); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if raw.calls != 2 {
		t.Errorf("store called %d times, want 2", raw.calls)
	}
	if len(transitions) != 1 || transitions[0] != resilience.StateOpen {
		t.Errorf("transitions = %v", transitions)
	}

	if err := s.Ping(ctx); err != nil || raw.pings != 1 {
		t.Errorf("Ping must bypass the breaker: %v, %d", err, raw.pings)
	}
}
