// Package store is the data access collaborator: it runs the two report
// SELECTs against a relational database and returns typed records.
//
// Backends register themselves from init():
//
//	import _ "github.com/ruslano69/stockreport/pkg/store/postgres"
//	import _ "github.com/ruslano69/stockreport/pkg/store/sqlstore"
//
//	s, err := store.Open(ctx, store.Config{Type: "postgres", DSN: dsn})
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

// Default table names of the original shop database.
const (
	DefaultInventoryTable = "stan_magazynowy"
	DefaultSalesTable     = "raport_sprzedazy"
)

// ErrConfig marks errors caused by the config rather than the database.
var ErrConfig = errors.New("store: invalid config")

// Store runs the report queries. Implementations are safe for concurrent use.
type Store interface {
	// Inventory returns every stock row in database order.
	Inventory(ctx context.Context) ([]report.InventoryRecord, error)
	// Sales returns the order lines selected by filter, newest first.
	Sales(ctx context.Context, filter report.DateFilter) ([]report.SalesRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// Seeder is implemented by stores that can fill themselves with demo rows.
type Seeder interface {
	Seed(ctx context.Context, now time.Time) error
}

// Config selects and tunes a backend.
type Config struct {
	Type           string `yaml:"type"` // postgres, sqlite, mysql, mssql
	DSN            string `yaml:"dsn"`
	InventoryTable string `yaml:"inventory_table"`
	SalesTable     string `yaml:"sales_table"`
	MaxConns       int    `yaml:"max_conns"`
	MinConns       int    `yaml:"min_conns"`

	// Now is the clock for date filters. Nil means time.Now.
	Now func() time.Time `yaml:"-"`
}

// WithDefaults fills empty table names and the clock.
func (c Config) WithDefaults() Config {
	if c.InventoryTable == "" {
		c.InventoryTable = DefaultInventoryTable
	}
	if c.SalesTable == "" {
		c.SalesTable = DefaultSalesTable
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Validate checks the parts of the config that end up in SQL text.
func (c Config) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("%w: type is required", ErrConfig)
	}
	for _, t := range []string{c.InventoryTable, c.SalesTable} {
		if err := ValidateTable(t); err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}
	return nil
}

// Constructor connects a backend. It receives a config with defaults applied.
type Constructor func(ctx context.Context, cfg Config) (Store, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register makes a backend available under name. Called from init().
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Types lists the registered backend names, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates cfg and connects the registered backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.RLock()
	ctor, ok := registry[cfg.Type]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q (available: %v)", ErrConfig, cfg.Type, Types())
	}

	s, err := ctor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect %s: %w", cfg.Type, err)
	}
	return s, nil
}
