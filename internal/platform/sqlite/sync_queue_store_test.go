package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/store"
)

func mustEnqueue(
	t *testing.T,
	queueStore store.SyncQueueStore,
	userID uuid.UUID,
	queuedAt time.Time,
) *domain.SyncQueueEntry {
	t.Helper()

	log, err := domain.NewReviewLog(userID, uuid.New(), true, true, queuedAt)
	require.NoError(t, err)

	entry, err := domain.NewSyncQueueEntry(
		userID,
		domain.SyncOpCreateReviewLog,
		log.ID,
		domain.CreateReviewLogPayload{ReviewLog: *log},
		queuedAt,
	)
	require.NoError(t, err)
	require.NoError(t, queueStore.Enqueue(context.Background(), entry))
	return entry
}

func TestSyncQueueStore_EnqueueAndGet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	queueStore := NewSyncQueueStore(db, nil)

	entry := mustEnqueue(t, queueStore, uuid.New(), time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))

	got, err := queueStore.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusPending, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Equal(t, domain.SyncOpCreateReviewLog, got.Operation)
	assert.JSONEq(t, string(entry.Payload), string(got.Payload))

	// Payload must still decode as its typed union member after a round trip.
	decoded, err := got.DecodePayload()
	require.NoError(t, err)
	_, ok := decoded.(domain.CreateReviewLogPayload)
	assert.True(t, ok)
}

func TestSyncQueueStore_ListRetryableOrdering(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	queueStore := NewSyncQueueStore(db, nil)

	userID := uuid.New()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	first := mustEnqueue(t, queueStore, userID, base)
	second := mustEnqueue(t, queueStore, userID, base.Add(time.Minute))
	third := mustEnqueue(t, queueStore, userID, base.Add(2*time.Minute))

	// Done entries are never retried.
	require.NoError(t, queueStore.UpdateStatus(ctx, second.ID, domain.SyncStatusDone))

	entries, err := queueStore.ListRetryable(ctx, 8, 100)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, third.ID, entries[1].ID)
}

func TestSyncQueueStore_RecordAttemptAndCap(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	queueStore := NewSyncQueueStore(db, nil)

	entry := mustEnqueue(t, queueStore, uuid.New(), time.Now().UTC())

	require.NoError(t, queueStore.RecordAttempt(ctx, entry.ID, domain.SyncStatusPending))
	require.NoError(t, queueStore.RecordAttempt(ctx, entry.ID, domain.SyncStatusFailed))

	got, err := queueStore.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, domain.SyncStatusFailed, got.Status)

	// Past the attempt cap the entry drops out of the retryable list.
	entries, err := queueStore.ListRetryable(ctx, 2, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSyncQueueStore_CountByStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	queueStore := NewSyncQueueStore(db, nil)

	userID := uuid.New()
	mustEnqueue(t, queueStore, userID, time.Now().UTC())
	done := mustEnqueue(t, queueStore, userID, time.Now().UTC())
	require.NoError(t, queueStore.UpdateStatus(ctx, done.ID, domain.SyncStatusDone))

	counts, err := queueStore.CountByStatus(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[domain.SyncStatusPending])
	assert.Equal(t, 1, counts[domain.SyncStatusDone])
}

func TestSyncQueueStore_UpdateMissingEntry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	err := NewSyncQueueStore(db, nil).UpdateStatus(
		context.Background(),
		uuid.New(),
		domain.SyncStatusDone,
	)
	assert.ErrorIs(t, err, store.ErrSyncEntryNotFound)
}
