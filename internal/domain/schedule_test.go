package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCardScheduleState(t *testing.T) {
	flashcardID := uuid.New()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	state, err := NewCardScheduleState(flashcardID, userID, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if state.FlashcardID != flashcardID {
		t.Errorf("Expected flashcard ID %s, got %s", flashcardID, state.FlashcardID)
	}
	if state.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, state.UserID)
	}
	if !state.IsNew {
		t.Error("Expected new state to be marked as new")
	}
	if state.Repetitions != 0 {
		t.Errorf("Expected repetitions 0, got %d", state.Repetitions)
	}
	if state.EasinessFactor != 2.5 {
		t.Errorf("Expected easiness factor 2.5, got %f", state.EasinessFactor)
	}
	if state.Interval != 1 {
		t.Errorf("Expected interval 1, got %d", state.Interval)
	}
	if !state.NextReviewAt.Equal(now) {
		t.Errorf("Expected NextReviewAt %v, got %v", now, state.NextReviewAt)
	}
	if state.LastReviewedAt != nil {
		t.Errorf("Expected nil LastReviewedAt, got %v", state.LastReviewedAt)
	}
	if state.LastQuality != nil {
		t.Errorf("Expected nil LastQuality, got %d", *state.LastQuality)
	}
}

func TestNewCardScheduleStateRejectsNilIDs(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewCardScheduleState(uuid.Nil, uuid.New(), now); !errors.Is(err, ErrEmptyScheduleFlashcardID) {
		t.Errorf("Expected ErrEmptyScheduleFlashcardID, got %v", err)
	}
	if _, err := NewCardScheduleState(uuid.New(), uuid.Nil, now); !errors.Is(err, ErrEmptyScheduleUserID) {
		t.Errorf("Expected ErrEmptyScheduleUserID, got %v", err)
	}
}

func TestCardScheduleStateValidate(t *testing.T) {
	valid := func() *CardScheduleState {
		s, err := NewCardScheduleState(uuid.New(), uuid.New(), time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to create state: %v", err)
		}
		return s
	}
	badQuality := 6

	tests := []struct {
		name   string
		mutate func(*CardScheduleState)
		want   error
	}{
		{"valid", func(*CardScheduleState) {}, nil},
		{"negative repetitions", func(s *CardScheduleState) { s.Repetitions = -1 }, ErrInvalidRepetitions},
		{"easiness below floor", func(s *CardScheduleState) { s.EasinessFactor = 1.29 }, ErrInvalidEasinessFactor},
		{"easiness at floor", func(s *CardScheduleState) { s.EasinessFactor = 1.3 }, nil},
		{"zero interval", func(s *CardScheduleState) { s.Interval = 0 }, ErrInvalidInterval},
		{"interval at cap", func(s *CardScheduleState) { s.Interval = MaxInterval }, nil},
		{"interval above cap", func(s *CardScheduleState) { s.Interval = MaxInterval + 1 }, ErrInvalidInterval},
		{"quality out of range", func(s *CardScheduleState) { s.LastQuality = &badQuality }, ErrInvalidLastQuality},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(s)
			err := s.Validate()
			if tc.want == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCardScheduleStateClone(t *testing.T) {
	now := time.Now().UTC()
	quality := 4
	original, _ := NewCardScheduleState(uuid.New(), uuid.New(), now)
	original.LastReviewedAt = &now
	original.LastQuality = &quality

	clone := original.Clone()
	*clone.LastQuality = 1
	later := now.Add(time.Hour)
	*clone.LastReviewedAt = later
	clone.Repetitions = 7

	if *original.LastQuality != 4 {
		t.Errorf("Clone shares LastQuality with original")
	}
	if !original.LastReviewedAt.Equal(now) {
		t.Errorf("Clone shares LastReviewedAt with original")
	}
	if original.Repetitions != 0 {
		t.Errorf("Clone shares Repetitions with original")
	}
}
