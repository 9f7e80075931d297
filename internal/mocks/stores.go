package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockScheduleStore mocks the store.ScheduleStore interface
type MockScheduleStore struct {
	mock.Mock
}

var _ store.ScheduleStore = (*MockScheduleStore)(nil)

func (m *MockScheduleStore) Get(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error) {
	args := m.Called(ctx, flashcardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardScheduleState), args.Error(1)
}

func (m *MockScheduleStore) GetForUpdate(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	args := m.Called(ctx, flashcardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardScheduleState), args.Error(1)
}

func (m *MockScheduleStore) Create(ctx context.Context, state *domain.CardScheduleState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockScheduleStore) Update(ctx context.Context, state *domain.CardScheduleState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockScheduleStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	noteID *uuid.UUID,
	asOf time.Time,
) ([]*store.DueCard, error) {
	args := m.Called(ctx, userID, noteID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.DueCard), args.Error(1)
}

func (m *MockScheduleStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CardScheduleState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CardScheduleState), args.Error(1)
}

// WithTx returns the mock itself so expectations apply inside transactions.
func (m *MockScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return m
}

// MockReviewLogStore mocks the store.ReviewLogStore interface
type MockReviewLogStore struct {
	mock.Mock
}

var _ store.ReviewLogStore = (*MockReviewLogStore)(nil)

func (m *MockReviewLogStore) Append(ctx context.Context, record *domain.ReviewAuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockReviewLogStore) Get(ctx context.Context, attemptID uuid.UUID) (*domain.ReviewAuditRecord, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewAuditRecord), args.Error(1)
}

func (m *MockReviewLogStore) ListByFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	args := m.Called(ctx, flashcardID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewAuditRecord), args.Error(1)
}

func (m *MockReviewLogStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewLogStore) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewLogStore) ReviewDays(
	ctx context.Context,
	userID uuid.UUID,
	loc *time.Location,
) ([]time.Time, error) {
	args := m.Called(ctx, userID, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

// WithTx returns the mock itself so expectations apply inside transactions.
func (m *MockReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return m
}

// MockFlashcardStore mocks the store.FlashcardStore interface
type MockFlashcardStore struct {
	mock.Mock
}

var _ store.FlashcardStore = (*MockFlashcardStore)(nil)

func (m *MockFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flashcard), args.Error(1)
}

// WithTx returns the mock itself so expectations apply inside transactions.
func (m *MockFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return m
}
