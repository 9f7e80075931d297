package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewPriority classifies a card by its due date relative to today.
type ReviewPriority string

// Priorities in queue order.
const (
	PriorityOverdue  ReviewPriority = "overdue"
	PriorityDue      ReviewPriority = "due"
	PriorityUpcoming ReviewPriority = "upcoming"
)

// Rank returns the sort position of p; lower ranks are reviewed first.
func (p ReviewPriority) Rank() int {
	switch p {
	case PriorityOverdue:
		return 0
	case PriorityDue:
		return 1
	default:
		return 2
	}
}

// ReviewQueueItem is a due card prepared for a review session. It is derived
// per request and never persisted. Question and Answer are sanitized HTML
// fragments: clients render them as HTML, never as plain text.
type ReviewQueueItem struct {
	FlashcardID         uuid.UUID      `json:"flashcard_id"`
	NoteID              uuid.UUID      `json:"note_id"`
	Question            string         `json:"question"`
	Answer              string         `json:"answer"`
	NextReviewAt        time.Time      `json:"next_review_at"`
	Priority            ReviewPriority `json:"priority"`
	DaysSinceLastReview int            `json:"days_since_last_review"`
	IsNew               bool           `json:"is_new"`
}
