package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/report"
)

var errClosed = errors.New("dashboard: closed")

// view is one mounted report view: a hook and its refresh schedule.
type view[R report.Record] struct {
	key      string
	hook     *dataset.Hook[R]
	schedule *dataset.Schedule
	// seedErr is the failure of the server-side first-paint query.
	seedErr error

	lastSeen time.Time // guarded by registry.mu
}

func (v *view[R]) stop() {
	if v.schedule != nil {
		v.schedule.Stop()
	}
}

// registry keeps one view per key, mounted on first use and stopped after
// idleTTL without a page view.
type registry[R report.Record] struct {
	report string
	mount  func(ctx context.Context, key string) (*view[R], error)
	now    func() time.Time

	mu     sync.Mutex
	views  map[string]*view[R]
	closed bool
}

func newRegistry[R report.Record](name string, now func() time.Time, mount func(context.Context, string) (*view[R], error)) *registry[R] {
	return &registry[R]{
		report: name,
		mount:  mount,
		now:    now,
		views:  make(map[string]*view[R]),
	}
}

// get returns the view for key, mounting it when needed, and marks it seen.
func (g *registry[R]) get(ctx context.Context, key string) (*view[R], error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, errClosed
	}
	if v, ok := g.views[key]; ok {
		v.lastSeen = g.now()
		g.mu.Unlock()
		return v, nil
	}
	g.mu.Unlock()

	v, err := g.mount(ctx, key)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if existing, ok := g.views[key]; ok || g.closed {
		g.mu.Unlock()
		v.stop()
		if !ok {
			return nil, errClosed
		}
		return existing, nil
	}
	v.lastSeen = g.now()
	g.views[key] = v
	n := len(g.views)
	g.mu.Unlock()

	viewsActive.WithLabelValues(g.report).Set(float64(n))
	log.Debug().Str("report", g.report).Str("view", key).Msg("view mounted")
	return v, nil
}

// sweep stops views not seen within ttl.
func (g *registry[R]) sweep(ttl time.Duration) int {
	cutoff := g.now().Add(-ttl)

	g.mu.Lock()
	var idle []*view[R]
	for key, v := range g.views {
		if v.lastSeen.Before(cutoff) {
			idle = append(idle, v)
			delete(g.views, key)
		}
	}
	n := len(g.views)
	g.mu.Unlock()

	for _, v := range idle {
		v.stop()
		log.Debug().Str("report", g.report).Str("view", v.key).Msg("idle view stopped")
	}
	viewsActive.WithLabelValues(g.report).Set(float64(n))
	return len(idle)
}

// close stops every view; later gets fail.
func (g *registry[R]) close() {
	g.mu.Lock()
	g.closed = true
	views := g.views
	g.views = make(map[string]*view[R])
	g.mu.Unlock()

	for _, v := range views {
		v.stop()
	}
	viewsActive.WithLabelValues(g.report).Set(0)
}

func (g *registry[R]) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.views)
}
