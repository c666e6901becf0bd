package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/pkg/refreshlog"
	"github.com/ruslano69/stockreport/pkg/resilience"
	"github.com/ruslano69/stockreport/pkg/retry"
	"github.com/ruslano69/stockreport/pkg/store"
	_ "github.com/ruslano69/stockreport/pkg/store/postgres"
	_ "github.com/ruslano69/stockreport/pkg/store/sqlstore"
)

// DevDSN is the store used by --dev: a private in-memory SQLite database.
const DevDSN = "file:stockreport?mode=memory&cache=shared"

// Infra holds all live infrastructure handles for the running service.
type Infra struct {
	Store      store.Store // report queries pass through Breaker
	Breaker    *resilience.CircuitBreaker
	RefreshLog refreshlog.Publisher

	// dev-mode internal instance; nil in production
	miniRedis *miniredis.Miniredis
}

// Setup connects the store and the refresh log.
//   - dev=true: in-memory SQLite seeded with demo rows and an in-process miniredis.
//   - dev=false: the configured backend and whichever refresh log sinks are set.
func Setup(ctx context.Context, cfg *Config, dev bool) (*Infra, error) {
	inf := &Infra{}

	if dev {
		cfg.Store.Type = "sqlite"
		cfg.Store.DSN = DevDSN

		var err error
		inf.miniRedis, err = miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("infra: miniredis: %w", err)
		}
		cfg.RefreshLog.Address = inf.miniRedis.Addr()
		cfg.RefreshLog.Password = ""
		log.Info().
			Str("refresh_log_redis", inf.miniRedis.Addr()).
			Msg("dev: in-process miniredis started")
	}

	var err error
	inf.RefreshLog, err = refreshlog.New(cfg.RefreshLog)
	if err != nil {
		inf.Close()
		return nil, fmt.Errorf("infra: refresh log: %w", err)
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		inf.Close()
		return nil, fmt.Errorf("infra: %w", err)
	}
	inf.Store = s

	inf.Breaker, err = NewBreaker(cfg.Breaker)
	if err != nil {
		inf.Close()
		return nil, fmt.Errorf("infra: %w", err)
	}

	if dev {
		seeder, ok := s.(store.Seeder)
		if !ok {
			inf.Close()
			return nil, fmt.Errorf("infra: %s store cannot be seeded", cfg.Store.Type)
		}
		if err := seeder.Seed(ctx, time.Now()); err != nil {
			inf.Close()
			return nil, fmt.Errorf("infra: seed demo data: %w", err)
		}
		log.Info().Str("store", cfg.Store.Type).Msg("dev: demo rows seeded")
	}

	inf.Store = Guard(s, inf.Breaker)
	return inf, nil
}

// openStore opens and pings the store, retrying while the database is not
// reachable yet. Configuration errors are not retried.
func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	rc := cfg.Connect
	rc.Retryable = func(err error) bool { return !errors.Is(err, store.ErrConfig) }
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Str("store", cfg.Store.Type).Msg("store not reachable, retrying")
	}
	r, err := retry.New(rc)
	if err != nil {
		return nil, err
	}

	var s store.Store
	err = r.Do(ctx, func(ctx context.Context) error {
		opened, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if err := opened.Ping(ctx); err != nil {
			_ = opened.Close()
			return err
		}
		s = opened
		return nil
	})
	return s, err
}

// Close releases all infrastructure resources.
func (inf *Infra) Close() {
	if inf.Store != nil {
		_ = inf.Store.Close()
	}
	if inf.RefreshLog != nil {
		_ = inf.RefreshLog.Close()
	}
	if inf.miniRedis != nil {
		inf.miniRedis.Close()
	}
}

// SetupLogger configures the global zerolog logger. Dev mode forces debug
// level and console output.
func SetupLogger(cfg LogConfig, dev bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if dev {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" && !dev {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
