package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/clock"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// History page sizes. Larger limits are clamped to MaxHistoryLimit.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// RecordReviewRequest is one learner answer to one flashcard.
type RecordReviewRequest struct {
	FlashcardID uuid.UUID
	UserID      uuid.UUID
	Difficulty  domain.Difficulty
	// ResponseTimeMs is optional; nil counts as a slow answer.
	ResponseTimeMs *int
	// AttemptID identifies the submission. Retrying with the same AttemptID
	// returns the current state without applying the review again; reusing
	// it for another flashcard or learner fails with ErrAttemptIDReused.
	// A nil AttemptID is replaced by a fresh one.
	AttemptID uuid.UUID
}

// Recorder applies reviews to schedules and writes the audit trail.
type Recorder struct {
	db         *sql.DB
	flashcards store.FlashcardStore
	schedules  store.ScheduleStore
	reviews    store.ReviewLogStore
	engine     srs.Service
	clock      clock.Clock
	logger     *slog.Logger
}

// NewRecorder creates a Recorder. The stores are rebound to each
// transaction opened on db.
// If logger is nil, a default logger will be used.
func NewRecorder(
	db *sql.DB,
	flashcards store.FlashcardStore,
	schedules store.ScheduleStore,
	reviews store.ReviewLogStore,
	engine srs.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *Recorder {
	if db == nil {
		panic("db cannot be nil")
	}
	if flashcards == nil {
		panic("flashcards cannot be nil")
	}
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
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		db:         db,
		flashcards: flashcards,
		schedules:  schedules,
		reviews:    reviews,
		engine:     engine,
		clock:      clk,
		logger:     logger.With(slog.String("component", "review_recorder")),
	}
}

// RecordReview applies one review. The schedule update and the audit record
// are written in one transaction: either both are stored or neither is.
func (r *Recorder) RecordReview(ctx context.Context, req RecordReviewRequest) (*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if req.FlashcardID == uuid.Nil || req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: flashcard and user IDs are required", domain.ErrInvalidID)
	}
	difficulty, err := domain.ParseDifficulty(string(req.Difficulty))
	if err != nil {
		log.Warn("invalid review difficulty",
			slog.String("flashcard_id", req.FlashcardID.String()),
			slog.String("difficulty", string(req.Difficulty)))
		return nil, err
	}
	if req.ResponseTimeMs != nil && *req.ResponseTimeMs < 0 {
		return nil, domain.ErrInvalidResponseTime
	}

	attemptID := req.AttemptID
	if attemptID == uuid.Nil {
		attemptID = uuid.New()
	}
	quality := r.engine.ConvertToQualityScore(difficulty.IsEasy(), req.ResponseTimeMs)
	now := r.clock.Now()

	log = log.With(
		slog.String("user_id", req.UserID.String()),
		slog.String("flashcard_id", req.FlashcardID.String()),
		slog.String("attempt_id", attemptID.String()))

	var result *domain.CardScheduleState
	err = store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		flashcards := r.flashcards.WithTx(tx)
		schedules := r.schedules.WithTx(tx)
		reviews := r.reviews.WithTx(tx)

		previous, err := reviews.Get(ctx, attemptID)
		switch {
		case err == nil:
			if previous.FlashcardID != req.FlashcardID || previous.UserID != req.UserID {
				log.Warn("review attempt ID reused for a different card or learner")
				return domain.ErrAttemptIDReused
			}
			current, err := schedules.Get(ctx, req.FlashcardID, req.UserID)
			if err != nil {
				return err
			}
			log.Info("review attempt already recorded")
			result = current
			return nil
		case !errors.Is(err, store.ErrReviewNotFound):
			return err
		}

		if _, err := flashcards.GetByID(ctx, req.FlashcardID); err != nil {
			return err
		}

		current, err := schedules.GetForUpdate(ctx, req.FlashcardID, req.UserID)
		firstReview := errors.Is(err, store.ErrScheduleNotFound)
		switch {
		case firstReview:
			current, err = r.engine.InitializeFlashcard(req.FlashcardID, req.UserID, now)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		next, err := r.engine.ProcessReview(current, quality, now)
		if err != nil {
			return err
		}

		if firstReview {
			err = schedules.Create(ctx, next)
		} else {
			err = schedules.Update(ctx, next)
		}
		if err != nil {
			return err
		}

		record, err := domain.NewReviewAuditRecord(attemptID, current, next, quality, req.ResponseTimeMs, now)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if err := reviews.Append(ctx, record); err != nil {
			return err
		}

		result = next
		return nil
	})
	if err != nil {
		mapped := mapError(OpRecordReview, err)
		if errors.Is(mapped, ErrConcurrencyConflict) {
			log.Warn("review lost a concurrent update", slog.String("error", err.Error()))
		} else if errors.Is(mapped, ErrPersistence) {
			log.Error("failed to record review", slog.String("error", err.Error()))
		}
		return nil, mapped
	}

	log.Debug("review recorded",
		slog.Int("quality", quality),
		slog.Int("repetitions", result.Repetitions),
		slog.Float64("easiness_factor", result.EasinessFactor),
		slog.Int("interval", result.Interval),
		slog.Time("next_review_at", result.NextReviewAt))
	return result, nil
}

// InitializeFlashcard creates the default schedule for a flashcard/learner
// pair. The card is due immediately.
func (r *Recorder) InitializeFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	state, err := r.engine.InitializeFlashcard(flashcardID, userID, r.clock.Now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := r.flashcards.WithTx(tx).GetByID(ctx, flashcardID); err != nil {
			return err
		}
		return r.schedules.WithTx(tx).Create(ctx, state)
	})
	if err != nil {
		if errors.Is(err, store.ErrScheduleExists) {
			return nil, ErrAlreadyInitialized
		}
		mapped := mapError(OpInitializeFlashcard, err)
		if errors.Is(mapped, ErrPersistence) {
			log.Error("failed to initialize schedule",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", flashcardID.String()),
				slog.String("user_id", userID.String()))
		}
		return nil, mapped
	}

	log.Debug("schedule initialized",
		slog.String("flashcard_id", flashcardID.String()),
		slog.String("user_id", userID.String()))
	return state, nil
}

// GetSchedule returns the current schedule of a flashcard/learner pair.
func (r *Recorder) GetSchedule(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	if flashcardID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: flashcard and user IDs are required", domain.ErrInvalidID)
	}

	state, err := r.schedules.Get(ctx, flashcardID, userID)
	if err != nil {
		mapped := mapError(OpGetSchedule, err)
		if errors.Is(mapped, ErrPersistence) {
			logger.FromContextOrDefault(ctx, r.logger).Error("failed to get schedule",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", flashcardID.String()))
		}
		return nil, mapped
	}
	return state, nil
}

// GetReviewHistory returns the most recent audit records of a
// flashcard/learner pair, newest first. The records outlive the schedule, so
// an unscheduled or deleted flashcard yields an empty slice, not an error.
func (r *Recorder) GetReviewHistory(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	if flashcardID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: flashcard and user IDs are required", domain.ErrInvalidID)
	}
	switch {
	case limit < 0:
		return nil, domain.ErrInvalidLimit
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	records, err := r.reviews.ListByFlashcard(ctx, flashcardID, userID, limit)
	if err != nil {
		mapped := mapError(OpGetHistory, err)
		if errors.Is(mapped, ErrPersistence) {
			logger.FromContextOrDefault(ctx, r.logger).Error("failed to get review history",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", flashcardID.String()))
		}
		return nil, mapped
	}
	return records, nil
}
