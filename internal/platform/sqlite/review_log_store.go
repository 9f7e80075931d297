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

// SQLiteReviewLogStore implements store.ReviewLogStore on SQLite.
type SQLiteReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteReviewLogStore creates a SQLite implementation of the ReviewLogStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteReviewLogStore(db store.DBTX, logger *slog.Logger) *SQLiteReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*SQLiteReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *SQLiteReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &SQLiteReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.Append
func (s *SQLiteReviewLogStore) Append(ctx context.Context, record *domain.ReviewAuditRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (
			id, flashcard_id, user_id, quality, response_time_ms, reviewed_at,
			before_repetitions, before_easiness_factor, before_interval_days, before_next_review_at,
			after_repetitions, after_easiness_factor, after_interval_days, after_next_review_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.FlashcardID,
		record.UserID,
		record.Quality,
		nullInt(record.ResponseTimeMs),
		toMillis(record.ReviewedAt),
		record.Before.Repetitions,
		record.Before.EasinessFactor,
		record.Before.Interval,
		toMillis(record.Before.NextReviewAt),
		record.After.Repetitions,
		record.After.EasinessFactor,
		record.After.Interval,
		toMillis(record.After.NextReviewAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrReviewExists, err)
		}
		log.Error("failed to append review record",
			slog.String("error", err.Error()),
			slog.String("review_id", record.ID.String()))
		return MapError(err)
	}
	return nil
}

const reviewColumns = `id, flashcard_id, user_id, quality, response_time_ms, reviewed_at,
	before_repetitions, before_easiness_factor, before_interval_days, before_next_review_at,
	after_repetitions, after_easiness_factor, after_interval_days, after_next_review_at`

func scanReviewRecord(row rowScanner) (*domain.ReviewAuditRecord, error) {
	var (
		r                             domain.ReviewAuditRecord
		responseTime                  sql.NullInt64
		reviewedAt, beforeAt, afterAt int64
	)
	err := row.Scan(
		&r.ID, &r.FlashcardID, &r.UserID, &r.Quality, &responseTime, &reviewedAt,
		&r.Before.Repetitions, &r.Before.EasinessFactor, &r.Before.Interval, &beforeAt,
		&r.After.Repetitions, &r.After.EasinessFactor, &r.After.Interval, &afterAt,
	)
	if err != nil {
		return nil, err
	}
	r.ReviewedAt = fromMillis(reviewedAt)
	r.Before.NextReviewAt = fromMillis(beforeAt)
	r.After.NextReviewAt = fromMillis(afterAt)
	if responseTime.Valid {
		ms := int(responseTime.Int64)
		r.ResponseTimeMs = &ms
	}
	return &r, nil
}

// Get implements store.ReviewLogStore.Get
func (s *SQLiteReviewLogStore) Get(ctx context.Context, attemptID uuid.UUID) (*domain.ReviewAuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_logs WHERE id = ?`, attemptID)
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
func (s *SQLiteReviewLogStore) ListByFlashcard(
	ctx context.Context,
	flashcardID, userID uuid.UUID,
	limit int,
) ([]*domain.ReviewAuditRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM review_logs
		WHERE flashcard_id = ? AND user_id = ?
		ORDER BY reviewed_at DESC
		LIMIT ?`, flashcardID, userID, limit)
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
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// CountByUser implements store.ReviewLogStore.CountByUser
func (s *SQLiteReviewLogStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM review_logs WHERE user_id = ?`, userID)
}

// CountSince implements store.ReviewLogStore.CountSince
func (s *SQLiteReviewLogStore) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(*) FROM review_logs WHERE user_id = ? AND reviewed_at >= ?`,
		userID, toMillis(since))
}

func (s *SQLiteReviewLogStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count review records",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// ReviewDays implements store.ReviewLogStore.ReviewDays
// SQLite has no time zone database, so timestamps are bucketed into days here.
func (s *SQLiteReviewLogStore) ReviewDays(
	ctx context.Context,
	userID uuid.UUID,
	loc *time.Location,
) ([]time.Time, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if loc == nil {
		loc = time.UTC
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT reviewed_at FROM review_logs WHERE user_id = ? ORDER BY reviewed_at`, userID)
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

	seen := make(map[time.Time]struct{})
	days := []time.Time{}
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		t := fromMillis(ms).In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
