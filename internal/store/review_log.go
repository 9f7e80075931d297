package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ReviewLogStore persists the append-only review audit trail.
type ReviewLogStore interface {
	// Append stores a new audit record. The record ID is the review attempt
	// ID; appending the same ID twice returns ErrReviewExists.
	Append(ctx context.Context, record *domain.ReviewAuditRecord) error

	// Get returns the audit record stored under the attempt ID, or
	// ErrReviewNotFound.
	Get(ctx context.Context, attemptID uuid.UUID) (*domain.ReviewAuditRecord, error)

	// ListByFlashcard returns the most recent audit records for the
	// flashcard/learner pair, newest first, at most limit of them.
	ListByFlashcard(ctx context.Context, flashcardID, userID uuid.UUID, limit int) ([]*domain.ReviewAuditRecord, error)

	// CountByUser returns the number of reviews the learner has recorded.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// CountSince returns the number of reviews recorded at or after since.
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// ReviewDays returns the distinct calendar days, in loc, on which the
	// learner recorded at least one review. Each day is returned as midnight
	// in loc; the order is unspecified.
	ReviewDays(ctx context.Context, userID uuid.UUID, loc *time.Location) ([]time.Time, error)

	// WithTx returns a ReviewLogStore bound to the given transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
