package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Service is the review API exposed to delivery adapters.
type Service interface {
	// InitializeFlashcard schedules a flashcard for a learner.
	// Returns ErrAlreadyInitialized if it is already scheduled and
	// ErrFlashcardNotFound if the flashcard does not exist.
	InitializeFlashcard(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)

	// GetReviewQueue returns the learner's prioritized due cards.
	GetReviewQueue(ctx context.Context, userID uuid.UUID, opts QueueOptions) ([]domain.ReviewQueueItem, error)

	// RecordReview applies an answer and returns the updated schedule.
	// Returns ErrConcurrencyConflict when another review of the same card
	// won a race; nothing is written in that case.
	RecordReview(ctx context.Context, req RecordReviewRequest) (*domain.CardScheduleState, error)

	// GetLearningStats returns the learner's dashboard summary.
	GetLearningStats(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error)

	// GetSchedule returns the schedule of a flashcard for a learner.
	// Returns ErrScheduleNotFound if the flashcard is not scheduled.
	GetSchedule(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)

	// GetReviewHistory returns the audit records of a flashcard for a
	// learner, newest first. A limit of 0 selects DefaultHistoryLimit.
	GetReviewHistory(ctx context.Context, flashcardID, userID uuid.UUID, limit int) ([]*domain.ReviewAuditRecord, error)
}

// ReviewService composes the queue manager, the recorder and the stats aggregator.
type ReviewService struct {
	queue    *QueueManager
	recorder *Recorder
	stats    *StatsAggregator
}

var _ Service = (*ReviewService)(nil)

// NewReviewService creates a ReviewService from its components.
func NewReviewService(
	queue *QueueManager,
	recorder *Recorder,
	stats *StatsAggregator,
) *ReviewService {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if recorder == nil {
		panic("recorder cannot be nil")
	}
	if stats == nil {
		panic("stats cannot be nil")
	}

	return &ReviewService{
		queue:    queue,
		recorder: recorder,
		stats:    stats,
	}
}

// InitializeFlashcard implements Service.InitializeFlashcard
func (s *ReviewService) InitializeFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	return s.recorder.InitializeFlashcard(ctx, flashcardID, userID)
}

// GetReviewQueue implements Service.GetReviewQueue
func (s *ReviewService) GetReviewQueue(
	ctx context.Context,
	userID uuid.UUID,
	opts QueueOptions,
) ([]domain.ReviewQueueItem, error) {
	return s.queue.GetQueue(ctx, userID, opts)
}

// RecordReview implements Service.RecordReview
func (s *ReviewService) RecordReview(ctx context.Context, req RecordReviewRequest) (*domain.CardScheduleState, error) {
	return s.recorder.RecordReview(ctx, req)
}

// GetLearningStats implements Service.GetLearningStats
func (s *ReviewService) GetLearningStats(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error) {
	return s.stats.GetStats(ctx, userID)
}

// GetSchedule implements Service.GetSchedule
func (s *ReviewService) GetSchedule(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	return s.recorder.GetSchedule(ctx, flashcardID, userID)
}

// GetReviewHistory implements Service.GetReviewHistory
func (s *ReviewService) GetReviewHistory(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	return s.recorder.GetReviewHistory(ctx, flashcardID, userID, limit)
}
