package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/mocks"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

// newRequest builds a request carrying the learner and the chi "id" param.
func newRequest(t *testing.T, method, target string, body io.Reader, userID uuid.UUID, id string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func newTestHandler(t *testing.T, svc review.Service) *ReviewHandler {
	t.Helper()
	log, _ := logger.GetTestLogger(t)
	return NewReviewHandler(svc, log)
}

func sampleState(flashcardID, userID uuid.UUID) *domain.CardScheduleState {
	reviewed := handlerNow
	quality := 5
	return &domain.CardScheduleState{
		FlashcardID:    flashcardID,
		UserID:         userID,
		Repetitions:    1,
		EasinessFactor: 2.6,
		Interval:       1,
		NextReviewAt:   handlerNow.AddDate(0, 0, 1),
		LastReviewedAt: &reviewed,
		LastQuality:    &quality,
		IsNew:          false,
		Version:        2,
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestGetQueue(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	noteID := uuid.New()
	items := []domain.ReviewQueueItem{
		{
			FlashcardID:  uuid.New(),
			NoteID:       noteID,
			Question:     "What is 2+2?",
			Answer:       "4",
			NextReviewAt: handlerNow.AddDate(0, 0, -2),
			Priority:     domain.PriorityOverdue,
			IsNew:        false,
		},
	}

	tests := []struct {
		name           string
		target         string
		userID         uuid.UUID
		serviceItems   []domain.ReviewQueueItem
		serviceErr     error
		expectedStatus int
		expectedOpts   review.QueueOptions
		expectCall     bool
		expectedMsg    string
	}{
		{
			name:           "defaults",
			target:         "/api/reviews/queue",
			userID:         userID,
			serviceItems:   items,
			expectedStatus: http.StatusOK,
			expectCall:     true,
		},
		{
			name:           "note filter and limit",
			target:         fmt.Sprintf("/api/reviews/queue?note_id=%s&limit=5", noteID),
			userID:         userID,
			serviceItems:   items,
			expectedStatus: http.StatusOK,
			expectedOpts:   review.QueueOptions{NoteID: &noteID, Limit: 5},
			expectCall:     true,
		},
		{
			name:           "empty queue",
			target:         "/api/reviews/queue",
			userID:         userID,
			serviceItems:   []domain.ReviewQueueItem{},
			expectedStatus: http.StatusOK,
			expectCall:     true,
		},
		{
			name:           "malformed note id",
			target:         "/api/reviews/queue?note_id=abc",
			userID:         userID,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid note_id: must be a UUID",
		},
		{
			name:           "negative limit",
			target:         "/api/reviews/queue?limit=-3",
			userID:         userID,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid limit: must be a non-negative integer",
		},
		{
			name:           "overflowing limit",
			target:         "/api/reviews/queue?limit=99999999999999999999999",
			userID:         userID,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid limit: too large",
		},
		{
			name:           "unauthenticated",
			target:         "/api/reviews/queue",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "store unavailable",
			target: "/api/reviews/queue",
			userID: userID,
			serviceErr: review.NewServiceError(review.OpGetQueue, "storage failure",
				fmt.Errorf("%w: %w", review.ErrPersistence, errors.New("SELECT failed"))),
			expectedStatus: http.StatusServiceUnavailable,
			expectCall:     true,
			expectedMsg:    "Service temporarily unavailable, please retry",
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			var gotOpts review.QueueOptions
			svc := &mocks.MockReviewService{
				GetReviewQueueFn: func(ctx context.Context, uid uuid.UUID, opts review.QueueOptions) ([]domain.ReviewQueueItem, error) {
					called = true
					gotOpts = opts
					assert.Equal(t, userID, uid)
					return tc.serviceItems, tc.serviceErr
				},
			}
			h := newTestHandler(t, svc)

			rr := httptest.NewRecorder()
			h.GetQueue(rr, newRequest(t, http.MethodGet, tc.target, nil, tc.userID, ""))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectCall, called)
			if tc.expectedMsg != "" {
				assert.Equal(t, tc.expectedMsg, decodeError(t, rr).Error)
			}
			if tc.expectedStatus != http.StatusOK {
				return
			}

			assert.Equal(t, tc.expectedOpts, gotOpts)
			var resp QueueResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, len(tc.serviceItems), resp.Count)
			assert.NotNil(t, resp.Items)
			if len(tc.serviceItems) > 0 {
				assert.Equal(t, tc.serviceItems[0].FlashcardID, resp.Items[0].FlashcardID)
				assert.Equal(t, domain.PriorityOverdue, resp.Items[0].Priority)
			}
		})
	}
}

func TestRecordReview(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	flashcardID := uuid.New()
	attemptID := uuid.New()

	tests := []struct {
		name           string
		pathID         string
		userID         uuid.UUID
		body           string
		serviceErr     error
		expectedStatus int
		expectedMsg    string
		expectCall     bool
		check          func(t *testing.T, req review.RecordReviewRequest)
	}{
		{
			name:           "easy with response time and attempt id",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           fmt.Sprintf(`{"difficulty":"easy","response_time_ms":2500,"attempt_id":"%s"}`, attemptID),
			expectedStatus: http.StatusOK,
			expectCall:     true,
			check: func(t *testing.T, req review.RecordReviewRequest) {
				assert.Equal(t, flashcardID, req.FlashcardID)
				assert.Equal(t, userID, req.UserID)
				assert.Equal(t, domain.DifficultyEasy, req.Difficulty)
				require.NotNil(t, req.ResponseTimeMs)
				assert.Equal(t, 2500, *req.ResponseTimeMs)
				assert.Equal(t, attemptID, req.AttemptID)
			},
		},
		{
			name:           "hard without optional fields",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"hard"}`,
			expectedStatus: http.StatusOK,
			expectCall:     true,
			check: func(t *testing.T, req review.RecordReviewRequest) {
				assert.Equal(t, domain.DifficultyHard, req.Difficulty)
				assert.Nil(t, req.ResponseTimeMs)
				assert.Equal(t, uuid.Nil, req.AttemptID)
			},
		},
		{
			name:           "missing difficulty",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"response_time_ms":100}`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid difficulty: required field",
		},
		{
			name:           "difficulty rejected by service",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"medium"}`,
			serviceErr:     domain.ErrInvalidDifficulty,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid difficulty: must be easy or hard",
			expectCall:     true,
		},
		{
			name:           "negative response time",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy","response_time_ms":-1}`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid response_time_ms: too small",
		},
		{
			name:           "malformed attempt id",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy","attempt_id":"retry-1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid attempt_id: must be a UUID",
		},
		{
			name:           "unknown field",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy","quality":5}`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid request format",
		},
		{
			name:           "empty body",
			pathID:         flashcardID.String(),
			userID:         userID,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Request body is required",
		},
		{
			name:           "malformed flashcard id",
			pathID:         "not-a-uuid",
			userID:         userID,
			body:           `{"difficulty":"easy"}`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid ID format",
		},
		{
			name:           "unauthenticated",
			pathID:         flashcardID.String(),
			body:           `{"difficulty":"easy"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown flashcard",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy"}`,
			serviceErr:     review.ErrFlashcardNotFound,
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Flashcard not found",
			expectCall:     true,
		},
		{
			name:   "lost race",
			pathID: flashcardID.String(),
			userID: userID,
			body:   `{"difficulty":"easy"}`,
			serviceErr: review.NewServiceError(review.OpRecordReview, "concurrent modification",
				fmt.Errorf("%w: %w", review.ErrConcurrencyConflict, store.ErrConcurrencyConflict)),
			expectedStatus: http.StatusConflict,
			expectedMsg:    "Review not recorded, please retry",
			expectCall:     true,
		},
		{
			name:           "attempt reused for another card",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy","attempt_id":"` + uuid.NewString() + `"}`,
			serviceErr:     domain.ErrAttemptIDReused,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid attempt_id: already used for another review",
			expectCall:     true,
		},
		{
			name:   "store down",
			pathID: flashcardID.String(),
			userID: userID,
			body:   `{"difficulty":"easy"}`,
			serviceErr: review.NewServiceError(review.OpRecordReview, "storage failure",
				fmt.Errorf("%w: %w", review.ErrPersistence, errors.New("password=s3cret rejected"))),
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "Review not recorded, please retry",
			expectCall:     true,
		},
		{
			name:           "unexpected failure",
			pathID:         flashcardID.String(),
			userID:         userID,
			body:           `{"difficulty":"easy"}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Review not recorded, please retry",
			expectCall:     true,
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			var got review.RecordReviewRequest
			svc := &mocks.MockReviewService{
				RecordReviewFn: func(ctx context.Context, req review.RecordReviewRequest) (*domain.CardScheduleState, error) {
					called = true
					got = req
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return sampleState(req.FlashcardID, req.UserID), nil
				},
			}
			h := newTestHandler(t, svc)

			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			target := "/api/flashcards/" + tc.pathID + "/reviews"
			rr := httptest.NewRecorder()
			h.RecordReview(rr, newRequest(t, http.MethodPost, target, body, tc.userID, tc.pathID))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectCall, called)
			assert.NotContains(t, rr.Body.String(), "s3cret")
			if tc.expectedMsg != "" {
				assert.Equal(t, tc.expectedMsg, decodeError(t, rr).Error)
			}
			if tc.check != nil {
				tc.check(t, got)
			}
			if tc.expectedStatus != http.StatusOK {
				return
			}

			var resp RecordReviewResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, flashcardID, resp.Schedule.FlashcardID)
			assert.Equal(t, 1, resp.Schedule.Interval)
			assert.InDelta(t, 2.6, resp.Schedule.EasinessFactor, 1e-9)
			assert.False(t, resp.Schedule.IsNew)
			assert.NotContains(t, rr.Body.String(), "version")
		})
	}
}

func TestInitializeSchedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	flashcardID := uuid.New()

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedMsg    string
	}{
		{name: "created", expectedStatus: http.StatusCreated},
		{
			name:           "already scheduled",
			serviceErr:     review.ErrAlreadyInitialized,
			expectedStatus: http.StatusConflict,
			expectedMsg:    "Flashcard already scheduled",
		},
		{
			name:           "missing flashcard",
			serviceErr:     review.ErrFlashcardNotFound,
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Flashcard not found",
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mocks.MockReviewService{
				InitializeFlashcardFn: func(ctx context.Context, fid, uid uuid.UUID) (*domain.CardScheduleState, error) {
					assert.Equal(t, flashcardID, fid)
					assert.Equal(t, userID, uid)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return domain.NewCardScheduleState(fid, uid, handlerNow)
				},
			}
			h := newTestHandler(t, svc)

			target := "/api/flashcards/" + flashcardID.String() + "/schedule"
			rr := httptest.NewRecorder()
			h.InitializeSchedule(rr, newRequest(t, http.MethodPost, target, nil, userID, flashcardID.String()))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedMsg != "" {
				assert.Equal(t, tc.expectedMsg, decodeError(t, rr).Error)
				return
			}

			var resp ScheduleResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, resp.IsNew)
			assert.Equal(t, 0, resp.Repetitions)
			assert.Equal(t, domain.DefaultInterval, resp.Interval)
			assert.InDelta(t, domain.DefaultEasinessFactor, resp.EasinessFactor, 1e-9)
			assert.True(t, handlerNow.Equal(resp.NextReviewAt))
		})
	}
}

func TestGetSchedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	flashcardID := uuid.New()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockReviewService{State: sampleState(flashcardID, userID)}
		h := newTestHandler(t, svc)

		rr := httptest.NewRecorder()
		h.GetSchedule(rr, newRequest(t, http.MethodGet, "/", nil, userID, flashcardID.String()))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ScheduleResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, flashcardID, resp.FlashcardID)
		require.NotNil(t, resp.LastQuality)
		assert.Equal(t, 5, *resp.LastQuality)
	})

	t.Run("not scheduled", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockReviewService{DefaultError: review.ErrScheduleNotFound}
		h := newTestHandler(t, svc)

		rr := httptest.NewRecorder()
		h.GetSchedule(rr, newRequest(t, http.MethodGet, "/", nil, userID, flashcardID.String()))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Schedule not found", decodeError(t, rr).Error)
	})

	t.Run("missing path id", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t, &mocks.MockReviewService{})

		rr := httptest.NewRecorder()
		h.GetSchedule(rr, newRequest(t, http.MethodGet, "/", nil, userID, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetReviewHistory(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	flashcardID := uuid.New()
	before := sampleState(flashcardID, userID)
	after := sampleState(flashcardID, userID)
	after.Repetitions = 2
	after.Interval = 6
	record, err := domain.NewReviewAuditRecord(uuid.New(), before, after, 4, nil, handlerNow)
	require.NoError(t, err)

	tests := []struct {
		name           string
		target         string
		serviceErr     error
		expectedStatus int
		expectedMsg    string
		expectedLimit  int
		expectCall     bool
	}{
		{
			name:           "default limit",
			target:         "/",
			expectedStatus: http.StatusOK,
			expectedLimit:  0,
			expectCall:     true,
		},
		{
			name:           "explicit limit",
			target:         "/?limit=5",
			expectedStatus: http.StatusOK,
			expectedLimit:  5,
			expectCall:     true,
		},
		{
			name:           "non-numeric limit",
			target:         "/?limit=ten",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid limit: must be a non-negative integer",
		},
		{
			name:           "negative limit",
			target:         "/?limit=-1",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid limit: must be a non-negative integer",
		},
		{
			name:   "store down",
			target: "/",
			serviceErr: review.NewServiceError(review.OpGetHistory, "storage failure",
				fmt.Errorf("%w: %w", review.ErrPersistence, errors.New("connection reset"))),
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "Service temporarily unavailable, please retry",
			expectCall:     true,
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			svc := &mocks.MockReviewService{
				GetReviewHistoryFn: func(
					ctx context.Context,
					fid, uid uuid.UUID,
					limit int,
				) ([]*domain.ReviewAuditRecord, error) {
					called = true
					assert.Equal(t, flashcardID, fid)
					assert.Equal(t, userID, uid)
					assert.Equal(t, tc.expectedLimit, limit)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return []*domain.ReviewAuditRecord{record}, nil
				},
			}
			h := newTestHandler(t, svc)

			rr := httptest.NewRecorder()
			h.GetReviewHistory(rr, newRequest(t, http.MethodGet, tc.target, nil, userID, flashcardID.String()))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectCall, called)
			if tc.expectedMsg != "" {
				assert.Equal(t, tc.expectedMsg, decodeError(t, rr).Error)
			}
			if tc.expectedStatus != http.StatusOK {
				return
			}

			var resp HistoryResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, 1, resp.Count)
			assert.Equal(t, record.ID, resp.Items[0].ID)
			assert.Equal(t, 4, resp.Items[0].Quality)
			assert.Equal(t, 1, resp.Items[0].Before.Repetitions)
			assert.Equal(t, 6, resp.Items[0].After.Interval)
		})
	}
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		stats := &domain.UserLearningStats{
			TotalReviews:  12,
			ReviewsToday:  3,
			CardsDue:      4,
			CurrentStreak: 2,
			RetentionRate: 0.75,
		}
		svc := &mocks.MockReviewService{
			GetLearningStatsFn: func(ctx context.Context, uid uuid.UUID) (*domain.UserLearningStats, error) {
				assert.Equal(t, userID, uid)
				return stats, nil
			},
		}
		h := newTestHandler(t, svc)

		rr := httptest.NewRecorder()
		h.GetStats(rr, newRequest(t, http.MethodGet, "/api/reviews/stats", nil, userID, ""))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp domain.UserLearningStats
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, *stats, resp)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t, &mocks.MockReviewService{})

		rr := httptest.NewRecorder()
		h.GetStats(rr, newRequest(t, http.MethodGet, "/api/reviews/stats", nil, uuid.Nil, ""))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestErrorResponsesDoNotLeakCauses(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	flashcardID := uuid.New()
	cause := errors.New("UPDATE card_schedules SET version = 3 failed on /var/lib/scry/scry.db")
	svc := &mocks.MockReviewService{
		DefaultError: review.NewServiceError(review.OpRecordReview, "storage failure",
			fmt.Errorf("%w: %w", review.ErrPersistence, cause)),
	}

	log, logs := logger.GetTestLogger(t)
	h := NewReviewHandler(svc, log)

	req := newRequest(t, http.MethodPost, "/", strings.NewReader(`{"difficulty":"easy"}`), userID, flashcardID.String())
	req = req.WithContext(logger.WithLogger(shared.WithTraceID(req.Context(), "trace-xyz"), log))
	rr := httptest.NewRecorder()
	h.RecordReview(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "trace-xyz", resp.TraceID)
	assert.NotContains(t, rr.Body.String(), "card_schedules")
	assert.NotContains(t, rr.Body.String(), "/var/lib")

	assert.NotContains(t, logs.String(), "card_schedules")
	assert.NotContains(t, logs.String(), "/var/lib/scry")
	logger.AssertLogContains(t, logs, "[REDACTED_SQL]")
}

func TestNewReviewHandlerPanics(t *testing.T) {
	t.Parallel()

	log, _ := logger.GetTestLogger(t)
	assert.Panics(t, func() { NewReviewHandler(nil, log) })
	assert.Panics(t, func() { NewReviewHandler(&mocks.MockReviewService{}, nil) })
}
