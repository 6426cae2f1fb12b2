package client

import (
	"context"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"honeydash/internal/config"
	"honeydash/internal/util"
)

// driverNames maps DB_DRIVER values to registered database/sql drivers.
var driverNames = map[string]string{
	"mysql":    "mysql",
	"postgres": "pgx",
	"sqlite":   "sqlite3",
}

// NewStoreDB opens the Cowrie database named by DB_DRIVER and DB_DSN and
// verifies it answers a ping.
func NewStoreDB(cfg *config.Config) (*sql.DB, error) {
	dbConfig := cfg.Database
	if dbConfig.Driver == "clickhouse" {
		return NewClickHouseDB(cfg)
	}

	driverName, ok := driverNames[dbConfig.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
	}

	db, err := sql.Open(driverName, dbConfig.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", dbConfig.Driver, err)
	}
	applyPool(db, dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", dbConfig.Driver, err)
	}

	util.Info("Event store opened",
		zap.String("driver", dbConfig.Driver),
		zap.Int("max_open_conns", dbConfig.MaxOpenConns),
		zap.Int("max_idle_conns", dbConfig.MaxIdleConns),
		zap.Duration("conn_max_lifetime", dbConfig.ConnMaxLifetime))

	return db, nil
}

func applyPool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
}

func loadCertPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA cert from %s", caFile)
	}
	return pool, nil
}
