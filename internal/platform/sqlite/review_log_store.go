package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/store"
)

// SQLiteReviewLogStore implements the store.ReviewLogStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewLogStore creates a new SQLite implementation of the
// ReviewLogStore interface. If logger is nil, the default logger is used.
func NewReviewLogStore(db store.DBTX, logger *slog.Logger) *SQLiteReviewLogStore {
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

// Ensure SQLiteReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*SQLiteReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *SQLiteReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &SQLiteReviewLogStore{db: tx, logger: s.logger}
}

// Create implements store.ReviewLogStore.Create
func (s *SQLiteReviewLogStore) Create(ctx context.Context, log *domain.ReviewLog) error {
	if err := log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (id, user_id, verse_card_id, was_successful, counted_toward_progress, review_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		log.ID.String(),
		log.UserID.String(),
		log.CardID.String(),
		log.WasSuccessful,
		log.CountedTowardProgress,
		log.ReviewedAt,
	)
	if err != nil {
		return store.NewStoreError("review_log", "create", "failed to insert review log", err)
	}

	return nil
}

// ListRecentByUser implements store.ReviewLogStore.ListRecentByUser
func (s *SQLiteReviewLogStore) ListRecentByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, verse_card_id, was_successful, counted_toward_progress, review_time
		FROM review_logs
		WHERE user_id = ?
		ORDER BY review_time DESC, id
		LIMIT ?
	`, userID.String(), limit)
	if err != nil {
		return nil, store.NewStoreError("review_log", "list_recent", "failed to query review logs", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*domain.ReviewLog
	for rows.Next() {
		var (
			log        domain.ReviewLog
			id         string
			uid        string
			cardID     string
			reviewedAt time.Time
		)
		if err := rows.Scan(&id, &uid, &cardID, &log.WasSuccessful, &log.CountedTowardProgress, &reviewedAt); err != nil {
			return nil, store.NewStoreError("review_log", "list_recent", "failed to scan review log", err)
		}

		if log.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid review log ID %q: %w", id, err)
		}
		if log.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("invalid review log user ID %q: %w", uid, err)
		}
		if log.CardID, err = uuid.Parse(cardID); err != nil {
			return nil, fmt.Errorf("invalid review log card ID %q: %w", cardID, err)
		}
		log.ReviewedAt = reviewedAt.UTC()

		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_log", "list_recent", "failed to iterate review logs", err)
	}

	return logs, nil
}

// CountByCard implements store.ReviewLogStore.CountByCard
func (s *SQLiteReviewLogStore) CountByCard(ctx context.Context, cardID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_logs WHERE verse_card_id = ?
	`, cardID.String()).Scan(&count)
	if err != nil {
		return 0, store.NewStoreError("review_log", "count_by_card", "failed to count review logs", err)
	}

	return count, nil
}
