package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// QueueQuery holds the raw query parameters of the review queue endpoint.
type QueueQuery struct {
	NoteID string `json:"note_id" validate:"omitempty,uuid"`
	Limit  string `json:"limit"   validate:"omitempty,number"`
}

// QueueResponse is the body of GET /api/reviews/queue.
type QueueResponse struct {
	Items []domain.ReviewQueueItem `json:"items"`
	Count int                      `json:"count"`
}

// HistoryQuery holds the raw query parameters of the review history endpoint.
type HistoryQuery struct {
	Limit string `json:"limit" validate:"omitempty,number"`
}

// HistoryResponse is the body of GET /api/flashcards/{id}/reviews.
type HistoryResponse struct {
	Items []*domain.ReviewAuditRecord `json:"items"`
	Count int                         `json:"count"`
}

// RecordReviewRequest is the body of POST /api/flashcards/{id}/reviews.
type RecordReviewRequest struct {
	// Difficulty is "easy" or "hard", case-insensitive.
	Difficulty     string `json:"difficulty"       validate:"required"`
	ResponseTimeMs *int   `json:"response_time_ms" validate:"omitempty,gte=0"`
	// AttemptID deduplicates retried submissions. Optional.
	AttemptID string `json:"attempt_id" validate:"omitempty,uuid"`
}

// RecordReviewResponse is the body of a successful review submission.
type RecordReviewResponse struct {
	Success  bool             `json:"success"`
	Schedule ScheduleResponse `json:"schedule"`
}

// ScheduleResponse is the client view of a CardScheduleState.
type ScheduleResponse struct {
	FlashcardID    uuid.UUID  `json:"flashcard_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Repetitions    int        `json:"repetitions"`
	EasinessFactor float64    `json:"easiness_factor"`
	Interval       int        `json:"interval"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	LastQuality    *int       `json:"last_quality,omitempty"`
	IsNew          bool       `json:"is_new"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func scheduleToResponse(state *domain.CardScheduleState) ScheduleResponse {
	return ScheduleResponse{
		FlashcardID:    state.FlashcardID,
		UserID:         state.UserID,
		Repetitions:    state.Repetitions,
		EasinessFactor: state.EasinessFactor,
		Interval:       state.Interval,
		NextReviewAt:   state.NextReviewAt.UTC(),
		LastReviewedAt: state.LastReviewedAt,
		LastQuality:    state.LastQuality,
		IsNew:          state.IsNew,
	}
}
