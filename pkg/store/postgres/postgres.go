// Package postgres is the pgx-backed store. It is the production backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/store"
)

// Type is the registry name of this backend.
const Type = "postgres"

var _ store.Store = (*Store)(nil)

func init() {
	store.Register(Type, func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return Open(ctx, cfg)
	})
}

// Store runs the report queries over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	cfg  store.Config
}

// Open parses the DSN, creates the pool and pings it.
func Open(ctx context.Context, cfg store.Config) (*Store, error) {
	cfg = cfg.WithDefaults()

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	pc.MaxConns = 10
	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}
	pc.MinConns = 2
	if cfg.MinConns > 0 {
		pc.MinConns = int32(cfg.MinConns)
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, cfg: cfg}, nil
}

// Inventory implements store.Store.
func (s *Store) Inventory(ctx context.Context) ([]report.InventoryRecord, error) {
	rows, err := s.pool.Query(ctx, store.Postgres.InventoryQuery(s.cfg.InventoryTable))
	if err != nil {
		return nil, fmt.Errorf("postgres: inventory: %w", err)
	}
	out, err := collect(rows, store.InventoryFromRow)
	if err != nil {
		return nil, fmt.Errorf("postgres: inventory: %w", err)
	}
	return out, nil
}

// Sales implements store.Store.
func (s *Store) Sales(ctx context.Context, filter report.DateFilter) ([]report.SalesRecord, error) {
	from, to := filter.Range(s.cfg.Now())
	q, args := store.Postgres.SalesQuery(s.cfg.SalesTable, from, to)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: sales: %w", err)
	}
	out, err := collect(rows, store.SalesFromRow)
	if err != nil {
		return nil, fmt.Errorf("postgres: sales: %w", err)
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the pool for seeding and diagnostics.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func collect[R report.Record](rows pgx.Rows, build func([]any) (R, error)) ([]R, error) {
	defer rows.Close()

	out := []R{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = plain(v)
		}
		rec, err := build(vals)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// plain unwraps pgtype values the generic converters do not know.
func plain(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Text:
		if !x.Valid {
			return nil
		}
		return x.String
	}
	return v
}
