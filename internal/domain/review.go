package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the binary self-assessment exposed by the review UI.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// ParseDifficulty normalizes s and returns the matching Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// IsEasy reports whether d is the "easy" answer.
func (d Difficulty) IsEasy() bool {
	return d == DifficultyEasy
}

// ScheduleSnapshot is the numeric part of a CardScheduleState at one point in time.
type ScheduleSnapshot struct {
	Repetitions    int       `json:"repetitions"`
	EasinessFactor float64   `json:"easiness_factor"`
	Interval       int       `json:"interval"`
	NextReviewAt   time.Time `json:"next_review_at"`
}

var (
	ErrEmptyAuditID   = errors.New("review audit ID cannot be empty")
	ErrAuditQuality   = errors.New("review audit quality must be between 0 and 5")
	ErrAuditNoReview  = errors.New("review audit timestamp cannot be zero")
	ErrAuditNegativeT = errors.New("review audit response time cannot be negative")
)

// ReviewAuditRecord is the append-only log entry written for every recorded
// review. ID doubles as the review attempt identifier used to deduplicate
// retried submissions.
type ReviewAuditRecord struct {
	ID             uuid.UUID        `json:"id"`
	FlashcardID    uuid.UUID        `json:"flashcard_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Quality        int              `json:"quality"`
	ResponseTimeMs *int             `json:"response_time_ms,omitempty"`
	ReviewedAt     time.Time        `json:"reviewed_at"`
	Before         ScheduleSnapshot `json:"before"`
	After          ScheduleSnapshot `json:"after"`
}

// NewReviewAuditRecord builds the audit entry for a transition from before to after.
func NewReviewAuditRecord(
	attemptID uuid.UUID,
	before, after *CardScheduleState,
	quality int,
	responseTimeMs *int,
	reviewedAt time.Time,
) (*ReviewAuditRecord, error) {
	if attemptID == uuid.Nil {
		attemptID = uuid.New()
	}

	record := &ReviewAuditRecord{
		ID:             attemptID,
		FlashcardID:    after.FlashcardID,
		UserID:         after.UserID,
		Quality:        quality,
		ResponseTimeMs: responseTimeMs,
		ReviewedAt:     reviewedAt,
		Before:         before.Snapshot(),
		After:          after.Snapshot(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// Validate checks the audit record fields.
func (r *ReviewAuditRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyAuditID
	}
	if r.FlashcardID == uuid.Nil {
		return ErrEmptyScheduleFlashcardID
	}
	if r.UserID == uuid.Nil {
		return ErrEmptyScheduleUserID
	}
	if r.Quality < 0 || r.Quality > 5 {
		return ErrAuditQuality
	}
	if r.ReviewedAt.IsZero() {
		return ErrAuditNoReview
	}
	if r.ResponseTimeMs != nil && *r.ResponseTimeMs < 0 {
		return ErrAuditNegativeT
	}
	return nil
}
