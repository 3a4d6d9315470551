// Package database creates and manages the connection to the content store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Supported drivers
const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// Config selects the driver, location and pool settings
type Config struct {
	Driver          string
	DSN             string
	AuthToken       string
	TablePrefix     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ConfigFromEnv reads the connection settings from pkg/config
func ConfigFromEnv() Config {
	return Config{
		Driver:          config.DBDriver,
		DSN:             config.DBDSN,
		AuthToken:       config.TursoAuthToken,
		TablePrefix:     config.TablePrefix,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(config.DBConnMaxIdleMinutes) * time.Minute,
	}
}

// DB wraps the standard connection pool with the table prefix and logger
type DB struct {
	*sql.DB
	Driver string
	Prefix string
	logger *logging.ChanneledLogger
}

// NewConnection opens and pings the configured database
func NewConnection(ctx context.Context, cfg Config, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", cfg.Driver)

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", cfg.Driver)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", cfg.Driver)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", cfg.Driver, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration)

	prefix := cfg.TablePrefix
	if prefix == "" {
		prefix = "wp_"
	}
	return &DB{DB: db, Driver: cfg.Driver, Prefix: prefix, logger: logger}, nil
}

func dataSourceName(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return cfg.DSN, nil
	case DriverLibSQL:
		if cfg.AuthToken == "" || strings.Contains(cfg.DSN, "authToken=") {
			return cfg.DSN, nil
		}
		sep := "?"
		if strings.Contains(cfg.DSN, "?") {
			sep = "&"
		}
		return cfg.DSN + sep + "authToken=" + cfg.AuthToken, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Table returns the prefixed table name
func (db *DB) Table(name string) string {
	return db.Prefix + name
}

// Logger returns the logger the connection was opened with
func (db *DB) Logger() *logging.ChanneledLogger {
	return db.logger
}

// CheckAndLogSlowQuery logs queries exceeding the configured threshold on
// the slow query channel
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	if duration > config.SlowQueryThreshold {
		logger.LogSlowQuery(query, duration)
	}
}
