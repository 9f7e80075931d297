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

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{
		db:     tx,
		logger: s.logger,
	}
}

// Append implements store.ReviewLogStore.Append
func (s *PostgresReviewLogStore) Append(ctx context.Context, record *domain.ReviewAuditRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("review record validation failed",
			slog.String("error", err.Error()),
			slog.String("review_id", record.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var responseTime sql.NullInt32
	if record.ResponseTimeMs != nil {
		responseTime = sql.NullInt32{Int32: int32(*record.ResponseTimeMs), Valid: true}
	}

	query := `
		INSERT INTO review_logs (
			id, flashcard_id, user_id, quality, response_time_ms, reviewed_at,
			before_repetitions, before_easiness_factor, before_interval_days, before_next_review_at,
			after_repetitions, after_easiness_factor, after_interval_days, after_next_review_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.FlashcardID,
		record.UserID,
		record.Quality,
		responseTime,
		record.ReviewedAt.UTC(),
		record.Before.Repetitions,
		record.Before.EasinessFactor,
		record.Before.Interval,
		record.Before.NextReviewAt.UTC(),
		record.After.Repetitions,
		record.After.EasinessFactor,
		record.After.Interval,
		record.After.NextReviewAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("review already recorded", slog.String("review_id", record.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrReviewExists, err)
		}
		log.Error("failed to append review record",
			slog.String("error", err.Error()),
			slog.String("review_id", record.ID.String()),
			slog.String("flashcard_id", record.FlashcardID.String()))
		return MapError(err)
	}

	log.Debug("review record appended",
		slog.String("review_id", record.ID.String()),
		slog.String("flashcard_id", record.FlashcardID.String()),
		slog.Int("quality", record.Quality))
	return nil
}

const reviewColumns = `id, flashcard_id, user_id, quality, response_time_ms, reviewed_at,
	before_repetitions, before_easiness_factor, before_interval_days, before_next_review_at,
	after_repetitions, after_easiness_factor, after_interval_days, after_next_review_at`

func scanReviewRecord(row rowScanner) (*domain.ReviewAuditRecord, error) {
	var (
		r            domain.ReviewAuditRecord
		responseTime sql.NullInt32
	)
	err := row.Scan(
		&r.ID, &r.FlashcardID, &r.UserID, &r.Quality, &responseTime, &r.ReviewedAt,
		&r.Before.Repetitions, &r.Before.EasinessFactor, &r.Before.Interval, &r.Before.NextReviewAt,
		&r.After.Repetitions, &r.After.EasinessFactor, &r.After.Interval, &r.After.NextReviewAt,
	)
	if err != nil {
		return nil, err
	}
	if responseTime.Valid {
		ms := int(responseTime.Int32)
		r.ResponseTimeMs = &ms
	}
	return &r, nil
}

// Get implements store.ReviewLogStore.Get
func (s *PostgresReviewLogStore) Get(ctx context.Context, attemptID uuid.UUID) (*domain.ReviewAuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_logs WHERE id = $1`, attemptID)
	record, err := scanReviewRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get review record",
			slog.String("error", err.Error()),
			slog.String("review_id", attemptID.String()))
		return nil, MapError(err)
	}
	return record, nil
}

// ListByFlashcard implements store.ReviewLogStore.ListByFlashcard
func (s *PostgresReviewLogStore) ListByFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + reviewColumns + `
		FROM review_logs
		WHERE flashcard_id = $1 AND user_id = $2
		ORDER BY reviewed_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, flashcardID, userID, limit)
	if err != nil {
		log.Error("failed to query review records",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	records := []*domain.ReviewAuditRecord{}
	for rows.Next() {
		r, err := scanReviewRecord(rows)
		if err != nil {
			log.Error("failed to scan review record", slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning review records", slog.String("error", err.Error()))
		return nil, err
	}

	return records, nil
}

// CountByUser implements store.ReviewLogStore.CountByUser
func (s *PostgresReviewLogStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM review_logs WHERE user_id = $1`, userID)
}

// CountSince implements store.ReviewLogStore.CountSince
func (s *PostgresReviewLogStore) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(*) FROM review_logs WHERE user_id = $1 AND reviewed_at >= $2`,
		userID, since.UTC())
}

func (s *PostgresReviewLogStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count review records",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// ReviewDays implements store.ReviewLogStore.ReviewDays
// The calendar day is computed by PostgreSQL in the named zone of loc.
func (s *PostgresReviewLogStore) ReviewDays(
	ctx context.Context,
	userID uuid.UUID,
	loc *time.Location,
) ([]time.Time, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if loc == nil {
		loc = time.UTC
	}

	query := `
		SELECT DISTINCT to_char(reviewed_at AT TIME ZONE $2, 'YYYY-MM-DD')
		FROM review_logs
		WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID, loc.String())
	if err != nil {
		log.Error("failed to query review days",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	days := []time.Time{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			log.Error("failed to scan review day", slog.String("error", err.Error()))
			return nil, err
		}
		day, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse review day %q: %w", raw, err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning review days", slog.String("error", err.Error()))
		return nil, err
	}

	return days, nil
}
