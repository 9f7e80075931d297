package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// PostgresFlashcardStore reads flashcard content from the flashcards table.
// Create and Delete exist for content ingestion and tests; the review
// services only use the store.FlashcardStore methods.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.FlashcardStore.GetByID
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var f domain.Flashcard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, note_id, question, answer FROM flashcards WHERE id = $1`, id,
	).Scan(&f.ID, &f.NoteID, &f.Question, &f.Answer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("flashcard_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, MapError(err)
	}

	return &f, nil
}

// Create inserts flashcard content.
// Returns store.ErrDuplicate if a flashcard with the same ID exists.
func (s *PostgresFlashcardStore) Create(ctx context.Context, f *domain.Flashcard) error {
	if f.ID == uuid.Nil || f.NoteID == uuid.Nil {
		return fmt.Errorf("%w: flashcard and note IDs are required", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flashcards (id, note_id, question, answer) VALUES ($1, $2, $3, $4)`,
		f.ID, f.NoteID, f.Question, f.Answer,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", f.ID.String()))
		return MapError(err)
	}
	return nil
}

// Delete removes a flashcard. Schedules of the flashcard are removed by the
// ON DELETE CASCADE constraint on card_schedules.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "flashcard"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrFlashcardNotFound
		}
		return err
	}
	return nil
}
