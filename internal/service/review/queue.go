package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/clock"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// QueueOptions narrows a review queue request.
type QueueOptions struct {
	// NoteID restricts the queue to flashcards of one note when set.
	NoteID *uuid.UUID
	// Limit caps the number of items. Zero selects the engine's batch size
	// for the number of due cards; negative values are rejected.
	Limit int
}

// QueueManager builds prioritized review sessions from due schedules.
type QueueManager struct {
	schedules store.ScheduleStore
	engine    srs.Service
	clock     clock.Clock
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

// NewQueueManager creates a QueueManager.
// If logger is nil, a default logger will be used.
func NewQueueManager(
	schedules store.ScheduleStore,
	engine srs.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *QueueManager {
	if schedules == nil {
		panic("schedules cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueManager{
		schedules: schedules,
		engine:    engine,
		clock:     clk,
		policy:    newCardPolicy(),
		logger:    logger.With(slog.String("component", "review_queue")),
	}
}

// newCardPolicy allows the user-generated-content subset plus the image and
// math markup card authors use. Text outside tags is HTML-escaped, so a
// plain "x < 3" becomes "x &lt; 3" and renders unchanged.
func newCardPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("img")
	policy.AllowAttrs("src", "alt").OnElements("img")
	policy.AllowElements("math", "span")
	policy.AllowAttrs("class").OnElements("span")
	return policy
}

// GetQueue returns the learner's due cards, most urgent first.
// It returns an empty, non-nil slice when nothing is due.
func (m *QueueManager) GetQueue(
	ctx context.Context,
	userID uuid.UUID,
	opts QueueOptions,
) ([]domain.ReviewQueueItem, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidID)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidLimit, opts.Limit)
	}

	now := m.clock.Now()
	due, err := m.schedules.ListDue(ctx, userID, opts.NoteID, now)
	if err != nil {
		log.Error("failed to list due schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(OpGetQueue, err)
	}

	items := make([]domain.ReviewQueueItem, 0, len(due))
	if len(due) == 0 {
		return items, nil
	}
	for _, card := range due {
		items = append(items, domain.ReviewQueueItem{
			FlashcardID:         card.State.FlashcardID,
			NoteID:              card.Flashcard.NoteID,
			Question:            m.policy.Sanitize(card.Flashcard.Question),
			Answer:              m.policy.Sanitize(card.Flashcard.Answer),
			NextReviewAt:        card.State.NextReviewAt.In(now.Location()),
			Priority:            m.engine.ReviewPriority(card.State.NextReviewAt, now),
			DaysSinceLastReview: m.engine.DaysSinceLastReview(card.State.LastReviewedAt, now),
			IsNew:               card.State.IsNew,
		})
	}

	items = m.engine.SortReviewQueue(items)

	limit := opts.Limit
	if limit == 0 {
		limit = m.engine.OptimalBatchSize(len(items))
	}
	if limit < len(items) {
		items = items[:limit]
	}

	log.Debug("built review queue",
		slog.String("user_id", userID.String()),
		slog.Int("due", len(due)),
		slog.Int("returned", len(items)))
	return items, nil
}
