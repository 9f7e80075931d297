package postgres

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

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the ScheduleStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore interface
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ScheduleStore.Get
func (s *PostgresScheduleStore) Get(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	return s.get(ctx, flashcardID, userID, false)
}

// GetForUpdate implements store.ScheduleStore.GetForUpdate
// It locks the row with SELECT ... FOR UPDATE until the transaction ends.
func (s *PostgresScheduleStore) GetForUpdate(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
) (*domain.CardScheduleState, error) {
	return s.get(ctx, flashcardID, userID, true)
}

func (s *PostgresScheduleStore) get(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	forUpdate bool,
) (*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + scheduleColumns + `
		FROM card_schedules s
		WHERE s.flashcard_id = $1 AND s.user_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	state, err := scanSchedule(s.db.QueryRowContext(ctx, query, flashcardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule not found",
				slog.String("flashcard_id", flashcardID.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()),
			slog.String("user_id", userID.String()),
			slog.Bool("for_update", forUpdate))
		return nil, MapError(err)
	}

	return state, nil
}

// Create implements store.ScheduleStore.Create
func (s *PostgresScheduleStore) Create(ctx context.Context, state *domain.CardScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("schedule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_schedules (
			flashcard_id, user_id, repetitions, easiness_factor, interval_days,
			next_review_at, last_reviewed_at, last_quality, is_new, version,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		state.FlashcardID,
		state.UserID,
		state.Repetitions,
		state.EasinessFactor,
		state.Interval,
		state.NextReviewAt.UTC(),
		nullTime(state.LastReviewedAt),
		nullInt(state.LastQuality),
		state.IsNew,
		state.CreatedAt.UTC(),
		state.UpdatedAt.UTC(),
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			log.Debug("schedule already exists",
				slog.String("flashcard_id", state.FlashcardID.String()),
				slog.String("user_id", state.UserID.String()))
			return fmt.Errorf("%w: %v", store.ErrScheduleExists, err)
		case IsForeignKeyViolation(err):
			log.Warn("schedule references unknown flashcard",
				slog.String("flashcard_id", state.FlashcardID.String()))
			return fmt.Errorf("%w: flashcard %s not found", store.ErrInvalidEntity, state.FlashcardID)
		}
		log.Error("failed to create schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()),
			slog.String("user_id", state.UserID.String()))
		return MapError(err)
	}

	state.Version = 1
	log.Debug("schedule created",
		slog.String("flashcard_id", state.FlashcardID.String()),
		slog.String("user_id", state.UserID.String()))
	return nil
}

// Update implements store.ScheduleStore.Update
// The write only succeeds while the stored version matches state.Version.
func (s *PostgresScheduleStore) Update(ctx context.Context, state *domain.CardScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("schedule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE card_schedules
		SET repetitions = $3, easiness_factor = $4, interval_days = $5,
			next_review_at = $6, last_reviewed_at = $7, last_quality = $8,
			is_new = $9, updated_at = $10, version = version + 1
		WHERE flashcard_id = $1 AND user_id = $2 AND version = $11
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		state.FlashcardID,
		state.UserID,
		state.Repetitions,
		state.EasinessFactor,
		state.Interval,
		state.NextReviewAt.UTC(),
		nullTime(state.LastReviewedAt),
		nullInt(state.LastQuality),
		state.IsNew,
		state.UpdatedAt.UTC(),
		state.Version,
	)
	if err != nil {
		log.Error("failed to update schedule",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", state.FlashcardID.String()),
			slog.String("user_id", state.UserID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "schedule"); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.classifyMissedUpdate(ctx, log, state)
	}

	state.Version++
	log.Debug("schedule updated",
		slog.String("flashcard_id", state.FlashcardID.String()),
		slog.String("user_id", state.UserID.String()),
		slog.Int64("version", state.Version))
	return nil
}

// classifyMissedUpdate tells a vanished row apart from a stale version.
func (s *PostgresScheduleStore) classifyMissedUpdate(
	ctx context.Context,
	log *slog.Logger,
	state *domain.CardScheduleState,
) error {
	var current int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM card_schedules WHERE flashcard_id = $1 AND user_id = $2`,
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
		slog.String("user_id", state.UserID.String()),
		slog.Int64("expected_version", state.Version),
		slog.Int64("current_version", current))
	return store.NewStoreError("schedule", "update", "version mismatch", store.ErrConcurrencyConflict)
}

// ListDue implements store.ScheduleStore.ListDue
func (s *PostgresScheduleStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	noteID *uuid.UUID,
	asOf time.Time,
) ([]*store.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var note any
	if noteID != nil {
		note = *noteID
	}

	query := `SELECT` + scheduleColumns + `, f.note_id, f.question, f.answer
		FROM card_schedules s
		JOIN flashcards f ON f.id = s.flashcard_id
		WHERE s.user_id = $1
			AND s.next_review_at <= $2
			AND ($3::uuid IS NULL OR f.note_id = $3::uuid)
		ORDER BY s.next_review_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, asOf.UTC(), note)
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
			st        scheduleRow
			flashcard domain.Flashcard
		)
		dest := append(st.dest(), &flashcard.NoteID, &flashcard.Question, &flashcard.Answer)
		if err := rows.Scan(dest...); err != nil {
			log.Error("failed to scan due schedule row", slog.String("error", err.Error()))
			return nil, err
		}
		state := st.state()
		flashcard.ID = state.FlashcardID
		due = append(due, &store.DueCard{State: state, Flashcard: &flashcard})
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning due schedules", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed due schedules",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// ListByUser implements store.ScheduleStore.ListByUser
func (s *PostgresScheduleStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CardScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + scheduleColumns + `
		FROM card_schedules s
		WHERE s.user_id = $1
		ORDER BY s.next_review_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
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
			log.Error("failed to scan schedule row", slog.String("error", err.Error()))
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning schedules", slog.String("error", err.Error()))
		return nil, err
	}

	return states, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scheduleRow holds the nullable columns of a card_schedules row while scanning.
type scheduleRow struct {
	s              domain.CardScheduleState
	lastReviewedAt sql.NullTime
	lastQuality    sql.NullInt32
}

func (r *scheduleRow) dest() []any {
	return []any{
		&r.s.FlashcardID,
		&r.s.UserID,
		&r.s.Repetitions,
		&r.s.EasinessFactor,
		&r.s.Interval,
		&r.s.NextReviewAt,
		&r.lastReviewedAt,
		&r.lastQuality,
		&r.s.IsNew,
		&r.s.Version,
		&r.s.CreatedAt,
		&r.s.UpdatedAt,
	}
}

func (r *scheduleRow) state() *domain.CardScheduleState {
	state := r.s
	if r.lastReviewedAt.Valid {
		t := r.lastReviewedAt.Time
		state.LastReviewedAt = &t
	}
	if r.lastQuality.Valid {
		q := int(r.lastQuality.Int32)
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

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
