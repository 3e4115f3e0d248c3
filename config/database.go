package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	connAttempts = 5
	connBackoff  = 2 * time.Second

	// Transactions take the write lock at BEGIN so concurrent writers wait on
	// the busy timeout instead of failing a read-to-write upgrade.
	sqliteParams = "_foreign_keys=on&_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"
)

// OpenDB connects to the configured store, retrying a few times so the
// service can start alongside its database container.
func OpenDB(cfg DBConfig) (*gorm.DB, error) {
	const op = "config.OpenDB"

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Driver)
	}

	logMode := logger.Silent
	if cfg.LogQueries {
		logMode = logger.Info
	}

	var db *gorm.DB
	var err error
	for i := 0; i < connAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logMode),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		slog.Warn("failed to connect to database, retrying...", "driver", cfg.Driver, "attempt", i+1, "error", err)
		time.Sleep(connBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after multiple retries: %w", op, err)
	}

	slog.Info("connected to database", "driver", cfg.Driver)
	return db, nil
}

// SQLiteDSN appends the connection parameters every SQLite connection needs
// to path, keeping any the caller already set.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqliteParams
}

func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}
