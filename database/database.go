package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"stockit/config"
	"stockit/models"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. Postgres runs the versioned SQL
// migrations; SQLite, used for development and tests, is auto-migrated from
// the models.
func Migrate(db *gorm.DB, driver string) error {
	switch driver {
	case config.DriverPostgres:
		return migratePostgres(db)
	case config.DriverSQLite:
		return AutoMigrate(db)
	default:
		return fmt.Errorf("database.Migrate: unsupported driver %q", driver)
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.Models()...); err != nil {
		return fmt.Errorf("database.AutoMigrate: %w", err)
	}
	slog.Info("database auto-migration completed")
	return nil
}

func migratePostgres(db *gorm.DB) error {
	const op = "database.migratePostgres"

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("%s: postgres.WithInstance: %w", op, err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%s: iofs.New: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("%s: migrate.NewWithInstance: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: m.Up: %w", op, err)
	}

	slog.Info("postgres migrated successfully")
	return nil
}
