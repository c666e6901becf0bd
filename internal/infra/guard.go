package infra

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/resilience"
	"github.com/ruslano69/stockreport/pkg/store"
)

var (
	// breakerState is 0 closed, 1 half-open, 2 open.
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockreport_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	breakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockreport_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "to"},
	)
)

// NewBreaker builds the store breaker with logging and metrics attached.
func NewBreaker(cfg resilience.Config) (*resilience.CircuitBreaker, error) {
	next := cfg.OnStateChange
	cfg.OnStateChange = func(name string, from, to resilience.State) {
		breakerState.WithLabelValues(name).Set(float64(to))
		breakerTransitionsTotal.WithLabelValues(name, to.String()).Inc()
		ev := log.Warn()
		if to == resilience.StateClosed {
			ev = log.Info()
		}
		ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		if next != nil {
			next(name, from, to)
		}
	}
	cb, err := resilience.New(cfg)
	if err != nil {
		return nil, err
	}
	breakerState.WithLabelValues(cb.Name()).Set(float64(resilience.StateClosed))
	return cb, nil
}

// Guard routes the report queries of s through cb. Ping and Close bypass
// the breaker so readiness always reflects the database itself.
func Guard(s store.Store, cb *resilience.CircuitBreaker) store.Store {
	return &guardedStore{Store: s, breaker: cb}
}

type guardedStore struct {
	store.Store
	breaker *resilience.CircuitBreaker
}

func (g *guardedStore) Inventory(ctx context.Context) ([]report.InventoryRecord, error) {
	var rows []report.InventoryRecord
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		rows, err = g.Store.Inventory(ctx)
		return err
	})
	return rows, err
}

func (g *guardedStore) Sales(ctx context.Context, filter report.DateFilter) ([]report.SalesRecord, error) {
	var rows []report.SalesRecord
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		rows, err = g.Store.Sales(ctx, filter)
		return err
	})
	return rows, err
}
