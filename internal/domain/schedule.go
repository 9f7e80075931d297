package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Schedule defaults applied when a flashcard first becomes schedulable.
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	DefaultInterval       = 1

	// MaxInterval caps the gap between reviews at about one hundred years.
	MaxInterval = 36500
)

// Validation errors for CardScheduleState
var (
	ErrEmptyScheduleFlashcardID = errors.New("schedule flashcard ID cannot be empty")
	ErrEmptyScheduleUserID      = errors.New("schedule user ID cannot be empty")
	ErrInvalidRepetitions       = errors.New("repetitions cannot be negative")
	ErrInvalidEasinessFactor    = errors.New("easiness factor cannot be below 1.3")
	ErrInvalidInterval          = errors.New("interval must be between 1 and 36500 days")
	ErrInvalidLastQuality       = errors.New("last quality must be between 0 and 5")
)

// CardScheduleState is the spaced repetition state of one flashcard for one
// learner. The pair (FlashcardID, UserID) identifies it.
type CardScheduleState struct {
	FlashcardID    uuid.UUID  `json:"flashcard_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Repetitions    int        `json:"repetitions"`     // consecutive successful reviews since last lapse
	EasinessFactor float64    `json:"easiness_factor"` // never below MinEasinessFactor
	Interval       int        `json:"interval"`        // days until next review
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	LastQuality    *int       `json:"last_quality,omitempty"`
	IsNew          bool       `json:"is_new"`
	Version        int64      `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewCardScheduleState returns the creation defaults for a flashcard/learner
// pair. The card is due immediately.
func NewCardScheduleState(flashcardID, userID uuid.UUID, now time.Time) (*CardScheduleState, error) {
	state := &CardScheduleState{
		FlashcardID:    flashcardID,
		UserID:         userID,
		Repetitions:    0,
		EasinessFactor: DefaultEasinessFactor,
		Interval:       DefaultInterval,
		NextReviewAt:   now,
		IsNew:          true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks the numeric invariants of the state.
func (s *CardScheduleState) Validate() error {
	if s.FlashcardID == uuid.Nil {
		return ErrEmptyScheduleFlashcardID
	}
	if s.UserID == uuid.Nil {
		return ErrEmptyScheduleUserID
	}
	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}
	// Tolerate float noise from round trips through the store.
	if s.EasinessFactor < MinEasinessFactor-1e-9 {
		return ErrInvalidEasinessFactor
	}
	if s.Interval < 1 || s.Interval > MaxInterval {
		return ErrInvalidInterval
	}
	if s.LastQuality != nil && (*s.LastQuality < 0 || *s.LastQuality > 5) {
		return ErrInvalidLastQuality
	}
	return nil
}

// Snapshot captures the numeric scheduling fields for the audit trail.
func (s *CardScheduleState) Snapshot() ScheduleSnapshot {
	return ScheduleSnapshot{
		Repetitions:    s.Repetitions,
		EasinessFactor: s.EasinessFactor,
		Interval:       s.Interval,
		NextReviewAt:   s.NextReviewAt,
	}
}

// Clone returns a deep copy, including the optional pointer fields.
func (s *CardScheduleState) Clone() *CardScheduleState {
	c := *s
	if s.LastReviewedAt != nil {
		t := *s.LastReviewedAt
		c.LastReviewedAt = &t
	}
	if s.LastQuality != nil {
		q := *s.LastQuality
		c.LastQuality = &q
	}
	return &c
}
