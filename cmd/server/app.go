package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/clock"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores        stores
	verifier      auth.TokenVerifier
	reviewService review.Service
}

// newApplication wires stores, the scheduling engine and the review
// services. db must already be migrated.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	return newApplicationWithClock(cfg, logger, db, nil)
}

// newApplicationWithClock is newApplication with an injectable time source.
// A nil clk uses the wall clock in the scheduler time zone.
func newApplicationWithClock(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	clk clock.Clock,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.NewSystem(loc)
	}

	app.verifier, err = auth.NewHMACVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.stores, err = newStores(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}

	engine := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		InitialEasinessFactor:   cfg.Scheduler.InitialEasinessFactor,
		FastResponseThresholdMs: cfg.Scheduler.FastResponseThresholdMs,
		MasteredIntervalDays:    cfg.Scheduler.MasteredIntervalDays,
		LearningRepetitions:     cfg.Scheduler.LearningRepetitions,
	}))

	queue := review.NewQueueManager(app.stores.schedules, engine, clk, logger)
	recorder := review.NewRecorder(
		db,
		app.stores.flashcards,
		app.stores.schedules,
		app.stores.reviews,
		engine,
		clk,
		logger,
	)
	stats := review.NewStatsAggregator(app.stores.schedules, app.stores.reviews, engine, clk, loc, logger)
	app.reviewService = review.NewReviewService(queue, recorder, stats)

	logger.Info("application initialized",
		slog.String("driver", cfg.Database.Driver),
		slog.String("timezone", loc.String()))
	return app, nil
}

// Run serves HTTP until ctx is done, then releases resources.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
