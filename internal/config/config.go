// Package config loads dashboard settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"honeydash/internal/util"
)

const (
	// MaxRollupLimit bounds the rollup and recent-session limits accepted
	// from requests.
	MaxRollupLimit = 1000
	// MaxTrendHours bounds the trend window accepted from requests.
	MaxTrendHours = 24 * 7
)

type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Database    DatabaseConfig
	Clickhouse  ClickhouseConfig
	Redis       RedisConfig
	Dashboard   DashboardConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableTLS   bool
	TLSPort     int
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	// Driver is one of mysql, postgres, sqlite or clickhouse.
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// StoreTimezone is the zone the honeypot wrote its naive timestamps in.
	StoreTimezone string
}

type ClickhouseConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

type RedisConfig struct {
	// URL enables the query cache when set.
	URL      string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
}

type DashboardConfig struct {
	RollupLimit     int
	TrendHours      int
	DetailTimeUnits int
	DisplayTimezone string
	StaticDir       string
}

// LoadConfig reads .env when present and builds a validated Config. Real
// environment variables win over .env entries.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{
		Environment: util.GetEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         util.GetEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  util.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: util.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  util.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			EnableTLS:    util.GetEnvBool("ENABLE_TLS", false),
			TLSPort:      util.GetEnvInt("TLS_PORT", 8443),
			AutoCert:     util.GetEnvBool("AUTO_CERT", false),
			Domain:       util.GetEnv("DOMAIN", "localhost"),
			CertFile:     util.GetEnv("CERT_FILE", ""),
			KeyFile:      util.GetEnv("KEY_FILE", ""),
			AutoCertDir:  util.GetEnv("AUTOCERT_DIR", "./certs"),
			Email:        util.GetEnv("ACME_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  util.GetEnv("LOG_LEVEL", "info"),
			Format: util.GetEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Driver:          util.GetEnv("DB_DRIVER", "mysql"),
			DSN:             util.GetEnv("DB_DSN", "cowrie:cowrie@tcp(localhost:3306)/cowrie?parseTime=true"),
			MaxOpenConns:    util.GetEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    util.GetEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: util.GetEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			StoreTimezone:   util.GetEnv("STORE_TIMEZONE", "UTC"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      util.GetEnv("CLICKHOUSE_URL", "localhost:9000"),
			Username: util.GetEnv("CLICKHOUSE_USERNAME", "default"),
			Password: util.GetEnv("CLICKHOUSE_PASSWORD", ""),
			Database: util.GetEnv("CLICKHOUSE_DATABASE", "cowrie"),
		},
		Redis: RedisConfig{
			URL:      util.GetEnv("REDIS_URL", ""),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvInt("REDIS_DB", 0),
			PoolSize: util.GetEnvInt("REDIS_POOL_SIZE", 10),
			CacheTTL: util.GetEnvDuration("CACHE_TTL", 15*time.Second),
		},
		Dashboard: DashboardConfig{
			RollupLimit:     util.GetEnvInt("ROLLUP_LIMIT", 50),
			TrendHours:      util.GetEnvInt("TREND_HOURS", 6),
			DetailTimeUnits: util.GetEnvInt("DETAIL_TIME_UNITS", 2),
			DisplayTimezone: util.GetEnv("DISPLAY_TIMEZONE", "UTC"),
			StaticDir:       util.GetEnv("STATIC_DIR", "./public"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and that both time zones resolve.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite", "clickhouse":
	default:
		errs = append(errs, fmt.Errorf("config: DB_DRIVER %q is not one of mysql, postgres, sqlite, clickhouse", c.Database.Driver))
	}
	if c.Database.Driver != "clickhouse" && c.Database.DSN == "" {
		errs = append(errs, errors.New("config: DB_DSN must be set"))
	}
	if _, err := time.LoadLocation(c.Database.StoreTimezone); err != nil {
		errs = append(errs, fmt.Errorf("config: STORE_TIMEZONE: %w", err))
	}
	if _, err := time.LoadLocation(c.Dashboard.DisplayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("config: DISPLAY_TIMEZONE: %w", err))
	}
	if c.Dashboard.RollupLimit < 1 || c.Dashboard.RollupLimit > MaxRollupLimit {
		errs = append(errs, fmt.Errorf("config: ROLLUP_LIMIT must be between 1 and %d", MaxRollupLimit))
	}
	if c.Dashboard.TrendHours < 1 || c.Dashboard.TrendHours > MaxTrendHours {
		errs = append(errs, fmt.Errorf("config: TREND_HOURS must be between 1 and %d", MaxTrendHours))
	}
	if c.Dashboard.DetailTimeUnits < 1 {
		errs = append(errs, errors.New("config: DETAIL_TIME_UNITS must be at least 1"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("config: SERVER_PORT must be positive"))
	}
	if c.Server.AutoCert && c.Server.Domain == "" {
		errs = append(errs, errors.New("config: DOMAIN must be set when AUTO_CERT is enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// StoreLocation is the zone of naive store timestamps. Validate has already
// proven it loads.
func (c *Config) StoreLocation() *time.Location {
	return mustLocation(c.Database.StoreTimezone)
}

// DisplayLocation is the zone absolute timestamps are rendered in.
func (c *Config) DisplayLocation() *time.Location {
	return mustLocation(c.Dashboard.DisplayTimezone)
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
