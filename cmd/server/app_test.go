package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/clock"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-at-least-32-characters"

var appNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			ShutdownTimeoutSeconds: 2,
		},
		Database: config.DatabaseConfig{
			Driver: driverSQLite,
			URL:    "managed-by-test",
		},
		Auth: config.AuthConfig{JWTSecret: testSecret},
		Scheduler: config.SchedulerConfig{
			Timezone: "UTC",
		},
	}
}

// testServer runs the full router on a migrated sqlite database.
type testServer struct {
	*httptest.Server
	t    *testing.T
	app  *application
	clk  *clock.Fixed
	cfg  *config.Config
	seed func(f *domain.Flashcard)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testdb.OpenSQLite(t)
	log, _ := logger.GetTestLogger(t)
	clk := clock.NewFixed(appNow)
	cfg := testConfig()

	app, err := newApplicationWithClock(cfg, log, db, clk)
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	flashcards := sqlite.NewSQLiteFlashcardStore(db, log)
	return &testServer{
		Server: srv,
		t:      t,
		app:    app,
		clk:    clk,
		cfg:    cfg,
		seed: func(f *domain.Flashcard) {
			require.NoError(t, flashcards.Create(context.Background(), f))
		},
	}
}

func (s *testServer) token(userID uuid.UUID) string {
	s.t.Helper()
	token, err := auth.SignToken(testSecret, userID, auth.AccessTokenType, time.Now(), time.Hour)
	require.NoError(s.t, err)
	return token
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (s *testServer) do(method, path string, userID uuid.UUID, body string, out interface{}) *http.Response {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client().Do(req)
	require.NoError(s.t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestNewApplicationRejectsBadConfig(t *testing.T) {
	t.Parallel()

	db := testdb.OpenSQLite(t)
	log, _ := logger.GetTestLogger(t)

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{name: "short secret", mutate: func(cfg *config.Config) { cfg.Auth.JWTSecret = "short" }},
		{name: "unknown zone", mutate: func(cfg *config.Config) { cfg.Scheduler.Timezone = "Mars/Olympus" }},
		{name: "unknown driver", mutate: func(cfg *config.Config) { cfg.Database.Driver = "mysql" }},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tc.mutate(cfg)
			_, err := newApplication(cfg, log, db)
			assert.Error(t, err)
		})
	}
}

func TestReviewLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	learner := uuid.New()
	other := uuid.New()
	card := &domain.Flashcard{
		ID:       uuid.New(),
		NoteID:   uuid.New(),
		Question: "Capital of <b>France</b>?<script>alert(1)</script>",
		Answer:   "Paris",
	}
	s.seed(card)

	schedulePath := fmt.Sprintf("/api/flashcards/%s/schedule", card.ID)
	reviewPath := fmt.Sprintf("/api/flashcards/%s/reviews", card.ID)

	// health is public
	var health api.HealthResponse
	resp := s.do(http.MethodGet, "/health", uuid.Nil, "", &health)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	// everything under /api needs a token
	resp = s.do(http.MethodGet, "/api/reviews/queue", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// schedule the card
	var created api.ScheduleResponse
	resp = s.do(http.MethodPost, schedulePath, learner, "", &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, created.IsNew)
	assert.True(t, appNow.Equal(created.NextReviewAt))

	resp = s.do(http.MethodPost, schedulePath, learner, "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// the new card is due right away
	var queue api.QueueResponse
	resp = s.do(http.MethodGet, "/api/reviews/queue", learner, "", &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, queue.Count)
	assert.Equal(t, card.ID, queue.Items[0].FlashcardID)
	assert.True(t, queue.Items[0].IsNew)
	assert.NotContains(t, queue.Items[0].Question, "<script>")
	assert.Contains(t, queue.Items[0].Question, "France")

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/reviews/queue?note_id=%s", uuid.New()), learner, "", &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, queue.Count)

	// first review
	attemptID := uuid.New()
	body := fmt.Sprintf(`{"difficulty":"easy","response_time_ms":1200,"attempt_id":"%s"}`, attemptID)
	var recorded api.RecordReviewResponse
	resp = s.do(http.MethodPost, reviewPath, learner, body, &recorded)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, recorded.Success)
	assert.Equal(t, 1, recorded.Schedule.Repetitions)
	assert.Equal(t, 1, recorded.Schedule.Interval)
	assert.False(t, recorded.Schedule.IsNew)
	require.NotNil(t, recorded.Schedule.LastQuality)
	assert.Equal(t, 5, *recorded.Schedule.LastQuality)

	// a retried submission is not applied twice
	var retried api.RecordReviewResponse
	resp = s.do(http.MethodPost, reviewPath, learner, body, &retried)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, recorded.Schedule, retried.Schedule)

	var current api.ScheduleResponse
	resp = s.do(http.MethodGet, schedulePath, learner, "", &current)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, current.Repetitions)

	// the audit trail holds exactly one record for the attempt
	var history api.HistoryResponse
	resp = s.do(http.MethodGet, reviewPath, learner, "", &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, attemptID, history.Items[0].ID)
	assert.Equal(t, 0, history.Items[0].Before.Repetitions)
	assert.Equal(t, 1, history.Items[0].After.Repetitions)

	resp = s.do(http.MethodGet, reviewPath, other, "", &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, history.Count)
	assert.NotNil(t, history.Items)

	// nothing due until tomorrow
	resp = s.do(http.MethodGet, "/api/reviews/queue", learner, "", &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, queue.Count)
	assert.NotNil(t, queue.Items)

	var stats domain.UserLearningStats
	resp = s.do(http.MethodGet, "/api/reviews/stats", learner, "", &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stats.TotalReviews)
	assert.Equal(t, 1, stats.ReviewsToday)
	assert.Equal(t, 0, stats.CardsDue)
	assert.Equal(t, 1, stats.CurrentStreak)

	// the next day it is due again
	s.clk.Advance(24 * time.Hour)
	resp = s.do(http.MethodGet, "/api/reviews/queue", learner, "", &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, queue.Count)

	// schedules are per learner
	resp = s.do(http.MethodGet, schedulePath, other, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewErrorsOverHTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	learner := uuid.New()
	card := &domain.Flashcard{ID: uuid.New(), NoteID: uuid.New(), Question: "Q", Answer: "A"}
	s.seed(card)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{
			name:           "unknown flashcard",
			method:         http.MethodPost,
			path:           fmt.Sprintf("/api/flashcards/%s/reviews", uuid.New()),
			body:           `{"difficulty":"easy"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad difficulty",
			method:         http.MethodPost,
			path:           fmt.Sprintf("/api/flashcards/%s/reviews", card.ID),
			body:           `{"difficulty":"medium"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed id",
			method:         http.MethodGet,
			path:           "/api/flashcards/123/schedule",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not scheduled",
			method:         http.MethodGet,
			path:           fmt.Sprintf("/api/flashcards/%s/schedule", card.ID),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "initialize unknown flashcard",
			method:         http.MethodPost,
			path:           fmt.Sprintf("/api/flashcards/%s/schedule", uuid.New()),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "wrong method",
			method:         http.MethodDelete,
			path:           fmt.Sprintf("/api/flashcards/%s/schedule", card.ID),
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resp := s.do(tc.method, tc.path, learner, tc.body, nil)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}

func TestFirstReviewInitializesSchedule(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	learner := uuid.New()
	card := &domain.Flashcard{ID: uuid.New(), NoteID: uuid.New(), Question: "Q", Answer: "A"}
	s.seed(card)

	var recorded api.RecordReviewResponse
	resp := s.do(http.MethodPost, fmt.Sprintf("/api/flashcards/%s/reviews", card.ID), learner,
		`{"difficulty":"hard"}`, &recorded)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, recorded.Schedule.Repetitions)
	assert.Equal(t, 1, recorded.Schedule.Interval)
	require.NotNil(t, recorded.Schedule.LastQuality)
	assert.Equal(t, 2, *recorded.Schedule.LastQuality)
}
