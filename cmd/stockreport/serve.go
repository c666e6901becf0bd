package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/internal/api"
	"github.com/ruslano69/stockreport/internal/dashboard"
	"github.com/ruslano69/stockreport/internal/infra"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dev := fs.Bool("dev", false, "dev mode: in-memory SQLite with demo rows + in-process miniredis")
	configPath := fs.String("config", "", "path to config file")
	addrOverride := fs.String("addr", "", "listen address override (e.g. :3000)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addrOverride != "" {
		cfg.Server.Addr = *addrOverride
	}
	infra.SetupLogger(cfg.Log, *dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inf, err := infra.Setup(ctx, cfg, *dev)
	if err != nil {
		return err
	}
	defer inf.Close()

	if *dev {
		log.Warn().Msg("DEV MODE: in-memory SQLite with demo rows, in-process miniredis. Do not use in production.")
	}

	opts, err := cfg.Dashboard.ReportOptions()
	if err != nil {
		return err
	}
	sources := dashboard.StoreSources(inf.Store)
	if cfg.Dashboard.APIURL != "" {
		sources = dashboard.HTTPSources(cfg.Dashboard.APIURL, &http.Client{Timeout: 30 * time.Second})
		log.Info().Str("api_url", cfg.Dashboard.APIURL).Msg("dashboard polls the report API")
	}

	dash := dashboard.New(dashboard.Config{
		Interval:   cfg.Dashboard.Interval,
		IdleTTL:    cfg.Dashboard.IdleTTL,
		Breakpoint: cfg.Dashboard.Breakpoint,
		Report:     opts,
		Sources:    sources,
		Seed:       inf.Store.Inventory,
		RefreshLog: inf.RefreshLog,
	})
	defer dash.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(inf, dash.Handler()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("store", cfg.Store.Type).
			Dur("interval", cfg.Dashboard.Interval).
			Bool("dev", *dev).
			Msg("stockreport started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
	return nil
}
