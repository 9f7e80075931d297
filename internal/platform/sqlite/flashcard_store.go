package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// SQLiteFlashcardStore reads flashcard content from the flashcards table.
// Create and Delete exist for content ingestion and tests.
type SQLiteFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteFlashcardStore creates a SQLite implementation of the FlashcardStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteFlashcardStore(db store.DBTX, logger *slog.Logger) *SQLiteFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

var _ store.FlashcardStore = (*SQLiteFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *SQLiteFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &SQLiteFlashcardStore{db: tx, logger: s.logger}
}

// GetByID implements store.FlashcardStore.GetByID
func (s *SQLiteFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	var f domain.Flashcard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, note_id, question, answer FROM flashcards WHERE id = ?`, id,
	).Scan(&f.ID, &f.NoteID, &f.Question, &f.Answer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFlashcardNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, MapError(err)
	}
	return &f, nil
}

// Create inserts flashcard content.
// Returns store.ErrDuplicate if a flashcard with the same ID exists.
func (s *SQLiteFlashcardStore) Create(ctx context.Context, f *domain.Flashcard) error {
	if f.ID == uuid.Nil || f.NoteID == uuid.Nil {
		return fmt.Errorf("%w: flashcard and note IDs are required", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flashcards (id, note_id, question, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.NoteID, f.Question, f.Answer, toMillis(time.Now()),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", f.ID.String()))
		return MapError(err)
	}
	return nil
}

// Delete removes a flashcard together with its schedules.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *SQLiteFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrFlashcardNotFound
	}
	return nil
}
