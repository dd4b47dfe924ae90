package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
)

// SyncQueueStore defines the interface for the durable remote-mirror retry
// queue. Entries are created when a mirror attempt fails and consumed by the
// background retry sweep; they never gate local availability.
type SyncQueueStore interface {
	// Enqueue saves a new queue entry.
	Enqueue(ctx context.Context, entry *domain.SyncQueueEntry) error

	// GetByID retrieves a queue entry by its unique ID.
	// Returns ErrSyncEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncQueueEntry, error)

	// ListRetryable retrieves up to limit entries in pending or failed
	// status whose retry count is below maxAttempts, ordered by user and
	// then by original enqueue time so each user's operations replay in
	// order.
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*domain.SyncQueueEntry, error)

	// UpdateStatus moves an entry to the given status.
	// Returns ErrSyncEntryNotFound if the entry does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error

	// RecordAttempt increments an entry's retry count and moves it to the
	// given status after a sweep attempt.
	// Returns ErrSyncEntryNotFound if the entry does not exist.
	RecordAttempt(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error

	// CountByStatus counts the user's entries per status, used to surface a
	// non-blocking "pending sync" warning state.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.SyncStatus]int, error)

	// WithTx returns a SyncQueueStore bound to the given transaction, for
	// use with RunInTransaction.
	WithTx(tx *sql.Tx) SyncQueueStore
}
