package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/phrazzld/scry-scheduler/internal/platform/postgres"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Storage backends selectable with database.driver.
const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// stores bundles the store implementations of one backend.
type stores struct {
	flashcards store.FlashcardStore
	schedules  store.ScheduleStore
	reviews    store.ReviewLogStore
}

// openDatabase connects to the configured backend.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case driverPostgres:
		db, err = postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		})
	case driverSQLite:
		db, err = sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return db, nil
}

// newStores builds the store implementations for driver on top of db.
func newStores(driver string, db *sql.DB, logger *slog.Logger) (stores, error) {
	switch driver {
	case driverPostgres:
		return stores{
			flashcards: postgres.NewPostgresFlashcardStore(db, logger),
			schedules:  postgres.NewPostgresScheduleStore(db, logger),
			reviews:    postgres.NewPostgresReviewLogStore(db, logger),
		}, nil
	case driverSQLite:
		return stores{
			flashcards: sqlite.NewSQLiteFlashcardStore(db, logger),
			schedules:  sqlite.NewSQLiteScheduleStore(db, logger),
			reviews:    sqlite.NewSQLiteReviewLogStore(db, logger),
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// runMigrations executes one migration command against db.
func runMigrations(ctx context.Context, driver string, db *sql.DB, command string, logger *slog.Logger) error {
	var (
		runner *migrate.Runner
		err    error
	)

	switch driver {
	case driverPostgres:
		runner, err = postgres.NewMigrationRunner(db, logger)
	case driverSQLite:
		runner, err = sqlite.NewMigrationRunner(db, logger)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return err
	}

	logger.Info("running migrations", slog.String("command", command))
	if err := runner.Run(ctx, command); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
