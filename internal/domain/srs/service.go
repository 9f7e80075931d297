package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Common errors
var (
	ErrNilState = errors.New("card schedule state cannot be nil")

	// ErrInvalidQuality is returned for quality scores outside 0..5.
	ErrInvalidQuality = domain.ErrInvalidQuality
)

// Service is the scheduling engine. All methods are pure: they take the
// current time as an argument and never touch shared mutable state, so a
// Service is safe for concurrent use.
type Service interface {
	// ProcessReview computes the state that follows a review of the given quality.
	ProcessReview(
		state *domain.CardScheduleState,
		quality int,
		now time.Time,
	) (*domain.CardScheduleState, error)

	// InitializeFlashcard returns the creation defaults for a flashcard/learner pair.
	InitializeFlashcard(flashcardID, userID uuid.UUID, now time.Time) (*domain.CardScheduleState, error)

	// ConvertToQualityScore maps the binary easy/hard answer to a 0..5 quality.
	ConvertToQualityScore(isEasy bool, responseTimeMs *int) int

	// ReviewPriority classifies a due date relative to today.
	ReviewPriority(nextReviewAt, now time.Time) domain.ReviewPriority

	// DaysSinceLastReview returns whole days since the last review, 0 if never reviewed.
	DaysSinceLastReview(lastReviewedAt *time.Time, now time.Time) int

	// OptimalBatchSize returns the session size for the given number of due cards.
	OptimalBatchSize(totalDue int) int

	// SortReviewQueue orders queue items by priority, then by neglect.
	SortReviewQueue(items []domain.ReviewQueueItem) []domain.ReviewQueueItem

	// CalculateLearningStats classifies and aggregates schedule states.
	CalculateLearningStats(states []*domain.CardScheduleState) domain.LearningStats

	// CurrentStreak counts consecutive review days ending at the most recent one.
	CurrentStreak(reviewDays []time.Time, loc *time.Location) int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ProcessReview implements Service.ProcessReview
func (s *defaultService) ProcessReview(
	state *domain.CardScheduleState,
	quality int,
	now time.Time,
) (*domain.CardScheduleState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if !isValidQuality(quality) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	return calculateNextState(state, quality, now, s.params), nil
}

// InitializeFlashcard implements Service.InitializeFlashcard
func (s *defaultService) InitializeFlashcard(
	flashcardID, userID uuid.UUID,
	now time.Time,
) (*domain.CardScheduleState, error) {
	if flashcardID == uuid.Nil || userID == uuid.Nil {
		return nil, domain.ErrInvalidID
	}

	state, err := domain.NewCardScheduleState(flashcardID, userID, now)
	if err != nil {
		return nil, err
	}
	state.EasinessFactor = s.params.InitialEasinessFactor
	return state, nil
}

func (s *defaultService) ConvertToQualityScore(isEasy bool, responseTimeMs *int) int {
	return convertToQualityScore(isEasy, responseTimeMs, s.params)
}

func (s *defaultService) ReviewPriority(nextReviewAt, now time.Time) domain.ReviewPriority {
	return reviewPriority(nextReviewAt, now)
}

func (s *defaultService) DaysSinceLastReview(lastReviewedAt *time.Time, now time.Time) int {
	return daysSinceLastReview(lastReviewedAt, now)
}

func (s *defaultService) OptimalBatchSize(totalDue int) int {
	return optimalBatchSize(totalDue, s.params)
}

func (s *defaultService) SortReviewQueue(items []domain.ReviewQueueItem) []domain.ReviewQueueItem {
	return sortReviewQueue(items)
}

func (s *defaultService) CalculateLearningStats(states []*domain.CardScheduleState) domain.LearningStats {
	return calculateLearningStats(states, s.params)
}

func (s *defaultService) CurrentStreak(reviewDays []time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return currentStreak(reviewDays, loc)
}

// isValidQuality checks if the given quality is on the 0..5 scale
func isValidQuality(quality int) bool {
	return quality >= 0 && quality <= 5
}
