// Package dashboard serves the inventory and sales report pages.
//
// Every (report, filter) pair is a view: a dataset hook mounted on the first
// page view and refreshed on a schedule until nobody has looked at it for
// the idle TTL. Pages render a snapshot of the view, sorted by the state in
// the URL, as a table or as cards depending on the viewport width.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/refreshlog"
	"github.com/ruslano69/stockreport/pkg/report"
)

// Failure messages kept in the view state and the banner prefixes they are
// shown with.
const (
	inventoryFailure = "Failed to fetch inventory data"
	inventoryPrefix  = "Error fetching inventory data: "
	salesPrefix      = "Error fetching data: "
	seedFailure      = "Error connecting to the database. Please try again later."
)

const inventoryView = "inventory"

// Config of the dashboard.
type Config struct {
	Interval   time.Duration // refresh period of every view
	IdleTTL    time.Duration // views without page views are stopped after this
	Breakpoint int           // CSS px; narrower viewports get cards
	Report     report.Options
	Sources    Sources

	// Seed returns the first-paint inventory rows. Nil makes the inventory
	// view fetch on mount like the sales views.
	Seed func(ctx context.Context) ([]report.InventoryRecord, error)

	RefreshLog refreshlog.Publisher
	Location   *time.Location // for "Last updated"; default time.Local
	Now        func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = dataset.DefaultInterval
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 10 * time.Minute
	}
	if c.Breakpoint <= 0 {
		c.Breakpoint = 640
	}
	if c.Report.Currency == "" && c.Report.Language.IsRoot() {
		c.Report = report.DefaultOptions()
	}
	if c.RefreshLog == nil {
		c.RefreshLog = refreshlog.Nop{}
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Server owns the mounted views.
type Server struct {
	cfg         Config
	invSchema   *report.Schema[report.InventoryRecord]
	salesSchema *report.Schema[report.SalesRecord]
	inventory   *registry[report.InventoryRecord]
	sales       *registry[report.SalesRecord]

	base        context.Context
	cancel      context.CancelFunc
	janitorDone chan struct{}
	closeOnce   sync.Once
}

// New creates the dashboard and starts the idle-view janitor. Call Close
// on shutdown.
func New(cfg Config) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:         cfg,
		invSchema:   report.InventorySchema(cfg.Report),
		salesSchema: report.SalesSchema(cfg.Report),
		janitorDone: make(chan struct{}),
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	s.inventory = newRegistry("inventory", cfg.Now, s.mountInventory)
	s.sales = newRegistry("sales", cfg.Now, s.mountSales)

	every := cfg.IdleTTL / 2
	if every < time.Second {
		every = time.Second
	}
	go s.janitor(every)
	return s
}

// Handler returns the page routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inventory", http.StatusFound)
	})
	r.Get("/inventory", s.handleInventory)
	r.Post("/inventory/refresh", s.handleInventoryRefresh)
	r.Get("/inventory.xlsx", s.handleInventoryXLSX)
	r.Get("/sales-report", s.handleSales)
	r.Post("/sales-report/refresh", s.handleSalesRefresh)
	r.Get("/sales-report.xlsx", s.handleSalesXLSX)
	return r
}

// Sweep stops views idle for longer than the TTL and returns how many.
func (s *Server) Sweep() int {
	return s.inventory.sweep(s.cfg.IdleTTL) + s.sales.sweep(s.cfg.IdleTTL)
}

// Close stops every view and the janitor. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.janitorDone
		s.inventory.close()
		s.sales.close()
	})
}

func (s *Server) janitor(every time.Duration) {
	defer close(s.janitorDone)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.base.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.Info().Int("views", n).Msg("stopped idle views")
			}
		}
	}
}

func (s *Server) mountInventory(ctx context.Context, key string) (*view[report.InventoryRecord], error) {
	v := &view[report.InventoryRecord]{key: key}

	var seed []report.InventoryRecord
	if s.cfg.Seed != nil {
		rows, err := s.cfg.Seed(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Database query error")
			v.seedErr = err
		} else {
			seed = rows
			if seed == nil {
				seed = []report.InventoryRecord{}
			}
		}
	}

	v.hook = dataset.New(s.cfg.Sources.Inventory(), dataset.Options{
		Message:        inventoryFailure,
		RefreshOnStart: seed == nil,
		OnResult:       s.observe("inventory", "", key),
		Now:            s.cfg.Now,
	})
	v.hook.Initialize(seed)

	sched, err := v.hook.Start(s.base, s.cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("dashboard: start %s: %w", key, err)
	}
	v.schedule = sched
	return v, nil
}

func (s *Server) mountSales(_ context.Context, key string) (*view[report.SalesRecord], error) {
	filter := report.ParseDateFilter(key[len("sales:"):])
	v := &view[report.SalesRecord]{key: key}
	v.hook = dataset.New(s.cfg.Sources.Sales(filter), dataset.Options{
		RefreshOnStart: true,
		OnResult:       s.observe("sales", filter, key),
		Now:            s.cfg.Now,
	})

	sched, err := v.hook.Start(s.base, s.cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("dashboard: start %s: %w", key, err)
	}
	v.schedule = sched
	return v, nil
}

func salesView(f report.DateFilter) string {
	return "sales:" + string(f)
}

// observe records a finished refresh in metrics, the log and the refresh log.
func (s *Server) observe(name string, filter report.DateFilter, key string) func(dataset.Result) {
	return func(res dataset.Result) {
		outcome := "success"
		switch {
		case res.Discarded:
			outcome = "discarded"
		case res.Err != nil:
			outcome = "failed"
		case res.NotModified:
			outcome = "not_modified"
		}
		refreshTotal.WithLabelValues(name, outcome).Inc()
		if res.Discarded {
			log.Debug().Str("view", key).Uint64("seq", res.Seq).Msg("refresh result discarded")
			return
		}
		elapsed := res.FinishedAt.Sub(res.StartedAt)
		refreshDuration.WithLabelValues(name).Observe(elapsed.Seconds())

		ev := refreshlog.Event{
			View:       key,
			Report:     name,
			Filter:     string(filter),
			Status:     "success",
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			DurationMs: elapsed.Milliseconds(),
			Records:    res.Records,
		}
		if res.Err != nil {
			msg := res.Err.Error()
			ev.Status = "failed"
			ev.Error = &msg
			log.Warn().Err(res.Err).Str("view", key).Msg("view refresh failed")
		} else {
			log.Debug().Str("view", key).Int("records", res.Records).Bool("not_modified", res.NotModified).Msg("view refreshed")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cfg.RefreshLog.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("view", key).Msg("refresh log publish failed")
		}
	}
}
