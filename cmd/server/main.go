// Package main runs the spaced repetition scheduler HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("scheduler exited with error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// run loads configuration, opens the database and either executes a
// migration command or serves HTTP until ctx is done.
func run(ctx context.Context, args []string) error {
	// A .env file is optional and only used for local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	flags := pflag.NewFlagSet("scry-scheduler", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	migrateCmd := flags.String("migrate", "",
		fmt.Sprintf("run a migration command (%s, %s, %s, %s) and exit",
			migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus, migrate.CommandVersion))
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("timezone", cfg.Scheduler.Timezone))

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if *migrateCmd != "" || cfg.Database.AutoMigrate {
		command := *migrateCmd
		if command == "" {
			command = migrate.CommandUp
		}
		if err := runMigrations(ctx, cfg.Database.Driver, db, command, log); err != nil {
			_ = db.Close()
			return err
		}
		if *migrateCmd != "" {
			return db.Close()
		}
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
