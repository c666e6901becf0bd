// Package infra handles configuration loading and infrastructure wiring.
package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/objstore"
	"github.com/ruslano69/stockreport/pkg/refreshlog"
	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/resilience"
	"github.com/ruslano69/stockreport/pkg/retry"
	"github.com/ruslano69/stockreport/pkg/store"
)

// Config is the top-level configuration structure for stockreport.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Store      store.Config      `yaml:"store"`
	Connect    retry.Config      `yaml:"connect_retry"` // opening the store at startup
	Breaker    resilience.Config `yaml:"breaker"`     // guards store calls of the API
	RefreshLog refreshlog.Config `yaml:"refresh_log"` // empty address = disabled
	Dashboard  DashboardConfig   `yaml:"dashboard"`
	Export     ExportConfig      `yaml:"export"`
	Log        LogConfig         `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // default ":3000"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default 10s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default 15s
}

// DashboardConfig tunes the HTML views.
type DashboardConfig struct {
	// APIURL is the report API the views poll, e.g. "http://localhost:3001/api".
	// Empty means the views read the store in-process. Override via BACKEND_URL.
	APIURL     string        `yaml:"api_url"`
	Interval   time.Duration `yaml:"interval"`   // refresh period; default 180s
	IdleTTL    time.Duration `yaml:"idle_ttl"`   // views without page views are stopped; default 10m
	Breakpoint int           `yaml:"breakpoint"` // px below which cards replace the table; default 640
	Currency   string        `yaml:"currency"`   // default "zł"
	Language   string        `yaml:"language"`   // BCP 47 tag for text sorting; default "pl"
}

// ExportConfig of the export command. An empty bucket keeps files local.
type ExportConfig struct {
	S3 objstore.S3Config `yaml:"s3"`
}

// LogConfig selects the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error; default info
	Format string `yaml:"format"` // console or json; default console
}

// Defaults returns a config with every optional field filled.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":3000"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 15 * time.Second
	cfg.Store.Type = "postgres"
	cfg.Connect = retry.DefaultConfig()
	cfg.Breaker = resilience.DefaultConfig("store")
	cfg.RefreshLog.TTL = 3600
	cfg.Dashboard.Interval = dataset.DefaultInterval
	cfg.Dashboard.IdleTTL = 10 * time.Minute
	cfg.Dashboard.Breakpoint = 640
	cfg.Dashboard.Currency = "zł"
	cfg.Dashboard.Language = "pl"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// LoadConfig reads the YAML config at path over the defaults, then applies
// the environment. An empty path skips the file.
//
// Environment (a .env file in the working directory is loaded first and
// never overrides variables already set):
//
//	STOCKREPORT_DSN        store.dsn
//	PGHOST, PGPORT, PGUSER, PGPASSWORD, PGDATABASE
//	                       build a postgres DSN when store.dsn is empty
//	BACKEND_URL            dashboard.api_url
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dsn := os.Getenv("STOCKREPORT_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if cfg.Store.DSN == "" && cfg.Store.Type == "postgres" {
		cfg.Store.DSN = PostgresDSNFromEnv()
	}
	if u := os.Getenv("BACKEND_URL"); u != "" {
		cfg.Dashboard.APIURL = u
	}
}

// PostgresDSNFromEnv builds a connection URL from the libpq variables.
// Unset variables are left out so pgx applies its own defaults.
func PostgresDSNFromEnv() string {
	host := os.Getenv("PGHOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("PGPORT")
	if port == "" {
		port = "5432"
	}

	u := url.URL{Scheme: "postgres", Host: net.JoinHostPort(host, port)}
	switch user, pass := os.Getenv("PGUSER"), os.Getenv("PGPASSWORD"); {
	case user != "" && pass != "":
		u.User = url.UserPassword(user, pass)
	case user != "":
		u.User = url.User(user)
	}
	if db := os.Getenv("PGDATABASE"); db != "" {
		u.Path = "/" + db
	}
	return u.String()
}

// Validate rejects configs the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if err := c.Store.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Connect.Validate(); err != nil {
		return fmt.Errorf("config: connect_retry: %w", err)
	}
	if err := c.Breaker.Validate(); err != nil {
		return fmt.Errorf("config: breaker: %w", err)
	}
	if c.Dashboard.Interval <= 0 {
		return fmt.Errorf("config: dashboard.interval must be positive")
	}
	if c.Dashboard.IdleTTL <= 0 {
		return fmt.Errorf("config: dashboard.idle_ttl must be positive")
	}
	if c.Dashboard.Breakpoint <= 0 {
		return fmt.Errorf("config: dashboard.breakpoint must be positive")
	}
	if c.Dashboard.APIURL != "" {
		if u, err := url.Parse(c.Dashboard.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: dashboard.api_url %q is not an absolute URL", c.Dashboard.APIURL)
		}
	}
	if _, err := c.Dashboard.ReportOptions(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// ReportOptions converts the presentation settings for pkg/report.
func (d DashboardConfig) ReportOptions() (report.Options, error) {
	opts := report.DefaultOptions()
	if d.Language != "" {
		tag, err := language.Parse(d.Language)
		if err != nil {
			return opts, fmt.Errorf("config: dashboard.language: %w", err)
		}
		opts.Language = tag
	}
	opts.Currency = d.Currency
	return opts, nil
}
