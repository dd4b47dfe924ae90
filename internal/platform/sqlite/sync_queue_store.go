package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/store"
)

// SQLiteSyncQueueStore implements the store.SyncQueueStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteSyncQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSyncQueueStore creates a new SQLite implementation of the
// SyncQueueStore interface. If logger is nil, the default logger is used.
func NewSyncQueueStore(db store.DBTX, logger *slog.Logger) *SQLiteSyncQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteSyncQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "sync_queue_store")),
	}
}

// Ensure SQLiteSyncQueueStore implements store.SyncQueueStore interface
var _ store.SyncQueueStore = (*SQLiteSyncQueueStore)(nil)

// WithTx implements store.SyncQueueStore.WithTx
func (s *SQLiteSyncQueueStore) WithTx(tx *sql.Tx) store.SyncQueueStore {
	return &SQLiteSyncQueueStore{db: tx, logger: s.logger}
}

// Enqueue implements store.SyncQueueStore.Enqueue
func (s *SQLiteSyncQueueStore) Enqueue(ctx context.Context, entry *domain.SyncQueueEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, user_id, type, payload, origin_id, queued_at, retry_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		entry.UserID.String(),
		string(entry.Operation),
		string(entry.Payload),
		entry.OriginID.String(),
		entry.QueuedAt,
		entry.RetryCount,
		string(entry.Status),
	)
	if err != nil {
		return store.NewStoreError("sync_queue", "enqueue", "failed to insert entry", err)
	}

	return nil
}

// GetByID implements store.SyncQueueStore.GetByID
func (s *SQLiteSyncQueueStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.SyncQueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, payload, origin_id, queued_at, retry_count, status
		FROM sync_queue WHERE id = ?
	`, id.String())

	entry, err := scanSyncEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSyncEntryNotFound
		}
		return nil, store.NewStoreError("sync_queue", "get", "failed to scan entry", err)
	}

	return entry, nil
}

// ListRetryable implements store.SyncQueueStore.ListRetryable
func (s *SQLiteSyncQueueStore) ListRetryable(
	ctx context.Context,
	maxAttempts, limit int,
) ([]*domain.SyncQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, payload, origin_id, queued_at, retry_count, status
		FROM sync_queue
		WHERE status IN (?, ?) AND retry_count < ?
		ORDER BY user_id, queued_at, id
		LIMIT ?
	`,
		string(domain.SyncStatusPending),
		string(domain.SyncStatusFailed),
		maxAttempts,
		limit,
	)
	if err != nil {
		return nil, store.NewStoreError("sync_queue", "list_retryable", "failed to query entries", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.SyncQueueEntry
	for rows.Next() {
		entry, err := scanSyncEntry(rows.Scan)
		if err != nil {
			return nil, store.NewStoreError("sync_queue", "list_retryable", "failed to scan entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("sync_queue", "list_retryable", "failed to iterate entries", err)
	}

	return entries, nil
}

// UpdateStatus implements store.SyncQueueStore.UpdateStatus
func (s *SQLiteSyncQueueStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.SyncStatus,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidSyncStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_queue SET status = ? WHERE id = ?
	`, string(status), id.String())
	if err != nil {
		return store.NewStoreError("sync_queue", "update_status", "failed to update entry", err)
	}

	return checkSyncEntryAffected(result)
}

// RecordAttempt implements store.SyncQueueStore.RecordAttempt
func (s *SQLiteSyncQueueStore) RecordAttempt(
	ctx context.Context,
	id uuid.UUID,
	status domain.SyncStatus,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidSyncStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_queue SET retry_count = retry_count + 1, status = ? WHERE id = ?
	`, string(status), id.String())
	if err != nil {
		return store.NewStoreError("sync_queue", "record_attempt", "failed to update entry", err)
	}

	return checkSyncEntryAffected(result)
}

// CountByStatus implements store.SyncQueueStore.CountByStatus
func (s *SQLiteSyncQueueStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.SyncStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM sync_queue WHERE user_id = ? GROUP BY status
	`, userID.String())
	if err != nil {
		return nil, store.NewStoreError("sync_queue", "count_by_status", "failed to query counts", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.SyncStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, store.NewStoreError("sync_queue", "count_by_status", "failed to scan count", err)
		}
		counts[domain.SyncStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("sync_queue", "count_by_status", "failed to iterate counts", err)
	}

	return counts, nil
}

func scanSyncEntry(scan func(dest ...any) error) (*domain.SyncQueueEntry, error) {
	var (
		entry    domain.SyncQueueEntry
		id       string
		userID   string
		op       string
		payload  string
		originID string
		queuedAt time.Time
		status   string
	)

	err := scan(&id, &userID, &op, &payload, &originID, &queuedAt, &entry.RetryCount, &status)
	if err != nil {
		return nil, err
	}

	if entry.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid sync entry ID %q: %w", id, err)
	}
	if entry.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid sync entry user ID %q: %w", userID, err)
	}
	if entry.OriginID, err = uuid.Parse(originID); err != nil {
		return nil, fmt.Errorf("invalid sync entry origin ID %q: %w", originID, err)
	}

	entry.Operation = domain.SyncOperation(op)
	entry.Payload = []byte(payload)
	entry.QueuedAt = queuedAt.UTC()
	entry.Status = domain.SyncStatus(status)

	return &entry, nil
}

func checkSyncEntryAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("sync_queue", "update", "failed to read rows affected", err)
	}
	if affected == 0 {
		return store.ErrSyncEntryNotFound
	}
	return nil
}
