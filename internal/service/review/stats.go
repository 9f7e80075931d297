package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/clock"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// StatsAggregator summarizes a learner's schedules and review history.
// Calendar days ("today", streak days) are taken in loc.
type StatsAggregator struct {
	schedules store.ScheduleStore
	reviews   store.ReviewLogStore
	engine    srs.Service
	clock     clock.Clock
	loc       *time.Location
	logger    *slog.Logger
}

// NewStatsAggregator creates a StatsAggregator. A nil loc means UTC.
// If logger is nil, a default logger will be used.
func NewStatsAggregator(
	schedules store.ScheduleStore,
	reviews store.ReviewLogStore,
	engine srs.Service,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *StatsAggregator {
	if schedules == nil {
		panic("schedules cannot be nil")
	}
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsAggregator{
		schedules: schedules,
		reviews:   reviews,
		engine:    engine,
		clock:     clk,
		loc:       loc,
		logger:    logger.With(slog.String("component", "learning_stats")),
	}
}

// GetStats returns the learner's dashboard summary. A learner without
// schedules or reviews gets zero counts, the default average easiness factor
// and a zero streak.
func (a *StatsAggregator) GetStats(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidID)
	}

	now := a.clock.Now().In(a.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)

	fail := func(step string, err error) (*domain.UserLearningStats, error) {
		log.Error("failed to aggregate learning stats",
			slog.String("step", step),
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(OpGetStats, err)
	}

	states, err := a.schedules.ListByUser(ctx, userID)
	if err != nil {
		return fail("schedules", err)
	}
	totalReviews, err := a.reviews.CountByUser(ctx, userID)
	if err != nil {
		return fail("total_reviews", err)
	}
	reviewsToday, err := a.reviews.CountSince(ctx, userID, startOfDay)
	if err != nil {
		return fail("reviews_today", err)
	}
	days, err := a.reviews.ReviewDays(ctx, userID, a.loc)
	if err != nil {
		return fail("review_days", err)
	}

	cardsDue := 0
	for _, s := range states {
		if !s.NextReviewAt.After(now) {
			cardsDue++
		}
	}

	summary := a.engine.CalculateLearningStats(states)
	return &domain.UserLearningStats{
		TotalReviews:          totalReviews,
		ReviewsToday:          reviewsToday,
		CardsDue:              cardsDue,
		NewCards:              summary.NewCards,
		LearningCards:         summary.LearningCards,
		ReviewCards:           summary.ReviewCards,
		CardsMastered:         summary.MasteredCards,
		RetentionRate:         summary.RetentionRate,
		AverageEasinessFactor: summary.AverageEasinessFactor,
		CurrentStreak:         a.engine.CurrentStreak(days, a.loc),
	}, nil
}
