package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// MockReviewService implements review.Service for testing
type MockReviewService struct {
	// Custom behavior functions
	InitializeFlashcardFn func(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)
	GetReviewQueueFn      func(ctx context.Context, userID uuid.UUID, opts review.QueueOptions) ([]domain.ReviewQueueItem, error)
	RecordReviewFn        func(ctx context.Context, req review.RecordReviewRequest) (*domain.CardScheduleState, error)
	GetLearningStatsFn    func(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error)
	GetScheduleFn         func(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)
	GetReviewHistoryFn    func(ctx context.Context, flashcardID, userID uuid.UUID, limit int) ([]*domain.ReviewAuditRecord, error)

	// Default return values
	State        *domain.CardScheduleState
	Queue        []domain.ReviewQueueItem
	Stats        *domain.UserLearningStats
	History      []*domain.ReviewAuditRecord
	DefaultError error
}

var _ review.Service = (*MockReviewService)(nil)

// InitializeFlashcard implements the review.Service.InitializeFlashcard method
func (m *MockReviewService) InitializeFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	if m.InitializeFlashcardFn != nil {
		return m.InitializeFlashcardFn(ctx, flashcardID, userID)
	}
	return m.State, m.DefaultError
}

// GetReviewQueue implements the review.Service.GetReviewQueue method
func (m *MockReviewService) GetReviewQueue(
	ctx context.Context,
	userID uuid.UUID,
	opts review.QueueOptions,
) ([]domain.ReviewQueueItem, error) {
	if m.GetReviewQueueFn != nil {
		return m.GetReviewQueueFn(ctx, userID, opts)
	}
	return m.Queue, m.DefaultError
}

// RecordReview implements the review.Service.RecordReview method
func (m *MockReviewService) RecordReview(
	ctx context.Context,
	req review.RecordReviewRequest,
) (*domain.CardScheduleState, error) {
	if m.RecordReviewFn != nil {
		return m.RecordReviewFn(ctx, req)
	}
	return m.State, m.DefaultError
}

// GetLearningStats implements the review.Service.GetLearningStats method
func (m *MockReviewService) GetLearningStats(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserLearningStats, error) {
	if m.GetLearningStatsFn != nil {
		return m.GetLearningStatsFn(ctx, userID)
	}
	return m.Stats, m.DefaultError
}

// GetSchedule implements the review.Service.GetSchedule method
func (m *MockReviewService) GetSchedule(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	if m.GetScheduleFn != nil {
		return m.GetScheduleFn(ctx, flashcardID, userID)
	}
	return m.State, m.DefaultError
}

// GetReviewHistory implements the review.Service.GetReviewHistory method
func (m *MockReviewService) GetReviewHistory(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	if m.GetReviewHistoryFn != nil {
		return m.GetReviewHistoryFn(ctx, flashcardID, userID, limit)
	}
	return m.History, m.DefaultError
}
