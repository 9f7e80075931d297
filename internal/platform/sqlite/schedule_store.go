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

const scheduleColumns = `
	s.flashcard_id, s.user_id, s.repetitions, s.easiness_factor, s.interval_days,
	s.next_review_at, s.last_reviewed_at, s.last_quality, s.is_new, s.version,
	s.created_at, s.updated_at`

// SQLiteScheduleStore implements store.ScheduleStore on SQLite.
type SQLiteScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteScheduleStore creates a SQLite implementation of the ScheduleStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteScheduleStore(db store.DBTX, logger *slog.Logger) *SQLiteScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

var _ store.ScheduleStore = (*SQLiteScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx
func (s *SQLiteScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &SQLiteScheduleStore{db: tx, logger: s.logger}
}

// Get implements store.ScheduleStore.Get
func (s *SQLiteScheduleStore) Get(ctx context.Context, flashcardID, userID uuid.UUID) (*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + scheduleColumns + `
		FROM card_schedules s
		WHERE s.flashcard_id = ? AND s.user_id = ?`

	state, err := scanSchedule(s.db.QueryRowContext(ctx, query, flashcardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return state, nil
}

// GetForUpdate implements store.ScheduleStore.GetForUpdate
// SQLite has no row locks; transactions opened on this package's
// connections already hold the database write lock (BEGIN IMMEDIATE), which
// serializes concurrent writers for the rest of the transaction.
func (s *SQLiteScheduleStore) GetForUpdate(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	return s.Get(ctx, flashcardID, userID)
}

// Create implements store.ScheduleStore.Create
func (s *SQLiteScheduleStore) Create(ctx context.Context, state *domain.CardScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_schedules (
			flashcard_id, user_id, repetitions, easiness_factor, interval_days,
			next_review_at, last_reviewed_at, last_quality, is_new, version,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		state.FlashcardID,
		state.UserID,
		state.Repetitions,
		state.EasinessFactor,
		state.Interval,
		toMillis(state.NextReviewAt),
		nullMillis(state.LastReviewedAt),
		nullInt(state.LastQuality),
		state.IsNew,
		toMillis(state.CreatedAt),
		toMillis(state.UpdatedAt),
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return fmt.Errorf("%w: %v", store.ErrScheduleExists, err)
		case IsForeignKeyViolation(err):
			log.Warn("schedule references unknown flashcard",
				slog.String("flashcard_id", state.FlashcardID.String()))
			return fmt.Errorf("%w: flashcard %s not found", store.ErrInvalidEntity, state.FlashcardID)
		}
		log.Error("failed to create schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()))
		return MapError(err)
	}

	state.Version = 1
	return nil
}

// Update implements store.ScheduleStore.Update
func (s *SQLiteScheduleStore) Update(ctx context.Context, state *domain.CardScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE card_schedules
		SET repetitions = ?, easiness_factor = ?, interval_days = ?,
			next_review_at = ?, last_reviewed_at = ?, last_quality = ?,
			is_new = ?, updated_at = ?, version = version + 1
		WHERE flashcard_id = ? AND user_id = ? AND version = ?`,
		state.Repetitions,
		state.EasinessFactor,
		state.Interval,
		toMillis(state.NextReviewAt),
		nullMillis(state.LastReviewedAt),
		nullInt(state.LastQuality),
		state.IsNew,
		toMillis(state.UpdatedAt),
		state.FlashcardID,
		state.UserID,
		state.Version,
	)
	if err != nil {
		log.Error("failed to update schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var current int64
		err := s.db.QueryRowContext(ctx,
			`SELECT version FROM card_schedules WHERE flashcard_id = ? AND user_id = ?`,
			state.FlashcardID, state.UserID,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrScheduleNotFound
		}
		if err != nil {
			return MapError(err)
		}
		log.Warn("schedule version conflict",
			slog.String("flashcard_id", state.FlashcardID.String()),
			slog.Int64("expected_version", state.Version),
			slog.Int64("current_version", current))
		return store.NewStoreError("schedule", "update", "version mismatch", store.ErrConcurrencyConflict)
	}

	state.Version++
	return nil
}

// ListDue implements store.ScheduleStore.ListDue
func (s *SQLiteScheduleStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	noteID *uuid.UUID,
	asOf time.Time,
) ([]*store.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + scheduleColumns + `, f.note_id, f.question, f.answer
		FROM card_schedules s
		JOIN flashcards f ON f.id = s.flashcard_id
		WHERE s.user_id = ? AND s.next_review_at <= ?`
	args := []any{userID, toMillis(asOf)}
	if noteID != nil {
		query += ` AND f.note_id = ?`
		args = append(args, *noteID)
	}
	query += ` ORDER BY s.next_review_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	due := []*store.DueCard{}
	for rows.Next() {
		var (
			r         scheduleRow
			flashcard domain.Flashcard
		)
		dest := append(r.dest(), &flashcard.NoteID, &flashcard.Question, &flashcard.Answer)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		state := r.state()
		flashcard.ID = state.FlashcardID
		due = append(due, &store.DueCard{State: state, Flashcard: &flashcard})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return due, nil
}

// ListByUser implements store.ScheduleStore.ListByUser
func (s *SQLiteScheduleStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT`+scheduleColumns+`
		FROM card_schedules s
		WHERE s.user_id = ?
		ORDER BY s.next_review_at ASC`, userID)
	if err != nil {
		log.Error("failed to query schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	states := []*domain.CardScheduleState{}
	for rows.Next() {
		state, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scheduleRow holds the raw column values of a card_schedules row.
type scheduleRow struct {
	s              domain.CardScheduleState
	nextReviewAt   int64
	lastReviewedAt sql.NullInt64
	lastQuality    sql.NullInt64
	createdAt      int64
	updatedAt      int64
}

func (r *scheduleRow) dest() []any {
	return []any{
		&r.s.FlashcardID,
		&r.s.UserID,
		&r.s.Repetitions,
		&r.s.EasinessFactor,
		&r.s.Interval,
		&r.nextReviewAt,
		&r.lastReviewedAt,
		&r.lastQuality,
		&r.s.IsNew,
		&r.s.Version,
		&r.createdAt,
		&r.updatedAt,
	}
}

func (r *scheduleRow) state() *domain.CardScheduleState {
	state := r.s
	state.NextReviewAt = fromMillis(r.nextReviewAt)
	state.CreatedAt = fromMillis(r.createdAt)
	state.UpdatedAt = fromMillis(r.updatedAt)
	if r.lastReviewedAt.Valid {
		t := fromMillis(r.lastReviewedAt.Int64)
		state.LastReviewedAt = &t
	}
	if r.lastQuality.Valid {
		q := int(r.lastQuality.Int64)
		state.LastQuality = &q
	}
	return &state
}

func scanSchedule(row rowScanner) (*domain.CardScheduleState, error) {
	var r scheduleRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.state(), nil
}
