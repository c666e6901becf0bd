// Package sqlstore runs the report queries through database/sql. It serves
// the sqlite, mysql and mssql backends; they differ only in driver name and
// dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // registers "sqlserver"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/store"
)

type backend struct {
	driver  string
	dialect store.Dialect
}

var backends = map[string]backend{
	"sqlite": {driver: "sqlite", dialect: store.SQLite},
	"mysql":  {driver: "mysql", dialect: store.MySQL},
	"mssql":  {driver: "sqlserver", dialect: store.MSSQL},
}

var _ store.Store = (*Store)(nil)

func init() {
	for name := range backends {
		store.Register(name, func(ctx context.Context, cfg store.Config) (store.Store, error) {
			return Open(ctx, cfg)
		})
	}
}

// Store is a database/sql backed store.
type Store struct {
	db      *sql.DB
	cfg     store.Config
	dialect store.Dialect
}

// Open connects the backend named by cfg.Type.
func Open(ctx context.Context, cfg store.Config) (*Store, error) {
	cfg = cfg.WithDefaults()
	b, ok := backends[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unsupported type %q", cfg.Type)
	}

	db, err := sql.Open(b.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	}
	// Every connection to :memory: is a separate database.
	if cfg.Type == "sqlite" && isMemory(cfg.DSN) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, cfg: cfg, dialect: b.dialect}, nil
}

func isMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Inventory implements store.Store.
func (s *Store) Inventory(ctx context.Context) ([]report.InventoryRecord, error) {
	out, err := query(ctx, s.db, store.InventoryFromRow, s.dialect.InventoryQuery(s.cfg.InventoryTable))
	if err != nil {
		return nil, fmt.Errorf("%s: inventory: %w", s.cfg.Type, err)
	}
	return out, nil
}

// Sales implements store.Store.
func (s *Store) Sales(ctx context.Context, filter report.DateFilter) ([]report.SalesRecord, error) {
	from, to := filter.Range(s.cfg.Now())
	q, args := s.dialect.SalesQuery(s.cfg.SalesTable, from, to)

	out, err := query(ctx, s.db, store.SalesFromRow, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: sales: %w", s.cfg.Type, err)
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for seeding and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func query[R report.Record](ctx context.Context, db *sql.DB, build func([]any) (R, error), q string, args ...any) ([]R, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []R{}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for rows.Next() {
		for i := range vals {
			vals[i] = nil
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec, err := build(vals)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
