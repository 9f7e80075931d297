package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// DueCard pairs a due schedule with the content of its flashcard.
type DueCard struct {
	State     *domain.CardScheduleState
	Flashcard *domain.Flashcard
}

// ScheduleStore defines the interface for per-learner schedule persistence.
// Rows are keyed by (flashcard ID, user ID) and are removed by cascade when
// the flashcard is deleted.
type ScheduleStore interface {
	// Get retrieves the schedule for the flashcard/learner pair.
	// Returns ErrScheduleNotFound if no schedule exists.
	// NOTE: This method does NOT lock the row; use GetForUpdate inside a
	// transaction when the row is about to be modified.
	Get(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)

	// GetForUpdate retrieves the schedule and locks it until the surrounding
	// transaction ends, serializing concurrent reviews of the same pair.
	// Returns ErrScheduleNotFound if no schedule exists.
	GetForUpdate(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error)

	// Create inserts a new schedule. state.Version is set to 1 on success.
	// Returns ErrScheduleExists if the pair already has one and
	// ErrInvalidEntity if the flashcard does not exist.
	Create(ctx context.Context, state *domain.CardScheduleState) error

	// Update persists state if the stored version still equals state.Version,
	// and increments state.Version on success.
	// Returns ErrConcurrencyConflict if the stored version differs, and
	// ErrScheduleNotFound if the row is gone.
	Update(ctx context.Context, state *domain.CardScheduleState) error

	// ListDue returns the learner's schedules with NextReviewAt at or before
	// asOf, joined with flashcard content, optionally restricted to one note.
	// Returns an empty slice when nothing is due.
	ListDue(ctx context.Context, userID uuid.UUID, noteID *uuid.UUID, asOf time.Time) ([]*DueCard, error)

	// ListByUser returns every schedule of the learner.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CardScheduleState, error)

	// WithTx returns a ScheduleStore bound to the given transaction.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       txSchedules := schedules.WithTx(tx)
	//       state, err := txSchedules.GetForUpdate(ctx, flashcardID, userID)
	//       ...
	//   })
	WithTx(tx *sql.Tx) ScheduleStore
}
