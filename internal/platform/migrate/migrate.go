// Package migrate applies the embedded goose migrations shipped by each
// storage backend.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Table records applied schema versions.
const Table = "schema_migrations"

// Commands understood by Runner.Run.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// Runner applies the migrations found in one directory of an fs.FS.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewRunner builds a runner for the migrations in dir of fsys.
func NewRunner(
	db *sql.DB,
	dialect database.Dialect,
	fsys fs.FS,
	dir string,
	logger *slog.Logger,
) (*Runner, error) {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations directory %q: %w", dir, err)
	}

	versions, err := database.NewStore(dialect, Table)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}

	provider, err := goose.NewProvider("", db, sub, goose.WithStore(versions))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Runner{
		provider: provider,
		logger:   logger.With(slog.String("component", "migrations"), slog.String("dialect", string(dialect))),
	}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := r.Version(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("database schema is up to date",
		slog.Int64("version", version),
		slog.Int("applied", len(results)))
	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	res, err := r.provider.Down(ctx)
	if res != nil {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Status logs the state of every known migration.
func (r *Runner) Status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		attrs := []any{
			slog.Int64("version", s.Source.Version),
			slog.String("file", s.Source.Path),
			slog.String("state", string(s.State)),
		}
		if !s.AppliedAt.IsZero() {
			attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
		}
		r.logger.Info("migration status", attrs...)
	}
	return nil
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	version, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Run dispatches one of the Command* names.
func (r *Runner) Run(ctx context.Context, command string) error {
	switch command {
	case CommandUp:
		return r.Up(ctx)
	case CommandDown:
		return r.Down(ctx)
	case CommandStatus:
		return r.Status(ctx)
	case CommandVersion:
		version, err := r.Version(ctx)
		if err != nil {
			return err
		}
		r.logger.Info("current schema version", slog.Int64("version", version))
		return nil
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

func (r *Runner) logResult(res *goose.MigrationResult) {
	if res.Error != nil {
		r.logger.Error("migration failed",
			slog.Int64("version", res.Source.Version),
			slog.String("file", res.Source.Path),
			slog.String("direction", res.Direction),
			slog.String("error", res.Error.Error()))
		return
	}
	r.logger.Info("migration applied",
		slog.Int64("version", res.Source.Version),
		slog.String("file", res.Source.Path),
		slog.String("direction", res.Direction),
		slog.Duration("duration", res.Duration))
}
