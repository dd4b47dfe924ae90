package task

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/platform/sqlite"
)

// sweepMirror is an in-memory MirrorStore with a failure switch.
type sweepMirror struct {
	mu       sync.Mutex
	failing  bool
	verses   []uuid.UUID
	cards    []uuid.UUID
	logsSeen []uuid.UUID
}

func (m *sweepMirror) fail(err bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = err
}

func (m *sweepMirror) CreateReviewLog(_ context.Context, log *domain.ReviewLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	m.logsSeen = append(m.logsSeen, log.ID)
	return nil
}

func (m *sweepMirror) UpsertCard(_ context.Context, card *domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	m.cards = append(m.cards, card.ID)
	return nil
}

func (m *sweepMirror) UpsertVerse(_ context.Context, verse *domain.Verse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	m.verses = append(m.verses, verse.ID)
	return nil
}

func newQueueDB(t *testing.T) (*sql.DB, *sqlite.SQLiteSyncQueueStore) {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.MigrateUp(db))

	return db, sqlite.NewSyncQueueStore(db, nil)
}

func enqueueCardEntry(
	t *testing.T,
	queue *sqlite.SQLiteSyncQueueStore,
	userID uuid.UUID,
	queuedAt time.Time,
) *domain.SyncQueueEntry {
	t.Helper()

	card, err := domain.NewCard(userID, uuid.New(), queuedAt)
	require.NoError(t, err)

	entry, err := domain.NewSyncQueueEntry(userID, domain.SyncOpUpsertCard, card.ID,
		domain.UpsertCardPayload{Card: *card}, queuedAt)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(context.Background(), entry))
	return entry
}

func TestSweepRunner_ReplaysQueuedEntries(t *testing.T) {
	t.Parallel()

	_, queue := newQueueDB(t)
	mirror := &sweepMirror{}
	runner := NewSweepRunner(queue, mirror, SweepConfig{RetryBase: time.Millisecond}, nil)

	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	verse, err := domain.NewVerse("John 3:16", "For God so loved the world...", "ESV", now)
	require.NoError(t, err)
	verseEntry, err := domain.NewSyncQueueEntry(userID, domain.SyncOpCreateVerse, verse.ID,
		domain.CreateVersePayload{Verse: *verse}, now)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(ctx, verseEntry))

	cardEntry := enqueueCardEntry(t, queue, userID, now.Add(time.Second))

	stats, err := runner.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Listed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Len(t, mirror.verses, 1)
	assert.Len(t, mirror.cards, 1)

	// Both entries are done and drop out of the retryable set.
	got, err := queue.GetByID(ctx, verseEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusDone, got.Status)

	got, err = queue.GetByID(ctx, cardEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusDone, got.Status)

	remaining, err := queue.ListRetryable(ctx, 8, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSweepRunner_FailureRecordsAttemptAndBlocksUser(t *testing.T) {
	t.Parallel()

	_, queue := newQueueDB(t)
	mirror := &sweepMirror{}
	mirror.fail(true)
	runner := NewSweepRunner(queue, mirror, SweepConfig{RetryBase: time.Millisecond, RetryMax: 1}, nil)

	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	first := enqueueCardEntry(t, queue, userID, now)
	second := enqueueCardEntry(t, queue, userID, now.Add(time.Second))
	otherUser := enqueueCardEntry(t, queue, uuid.New(), now)

	stats, err := runner.Sweep(ctx)
	require.NoError(t, err)

	// The first failure parks the user's second entry; the other user's
	// entry fails independently.
	assert.Equal(t, 3, stats.Listed)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)

	got, err := queue.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)

	// The skipped entry keeps its original state and retry count.
	got, err = queue.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPending, got.Status)
	assert.Equal(t, 0, got.RetryCount)

	got, err = queue.GetByID(ctx, otherUser.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetryCount)

	// Mirror recovers; the next sweep drains everything.
	mirror.fail(false)
	stats, err = runner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Succeeded)
}

func TestSweepRunner_ExhaustedEntriesAreLeftAlone(t *testing.T) {
	t.Parallel()

	_, queue := newQueueDB(t)
	mirror := &sweepMirror{}
	mirror.fail(true)
	runner := NewSweepRunner(queue, mirror,
		SweepConfig{MaxAttempts: 2, RetryBase: time.Millisecond, RetryMax: 1}, nil)

	ctx := context.Background()
	entry := enqueueCardEntry(t, queue, uuid.New(), time.Now())

	for i := 0; i < 2; i++ {
		_, err := runner.Sweep(ctx)
		require.NoError(t, err)
	}

	got, err := queue.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)

	// Attempt cap reached; the entry no longer shows up.
	stats, err := runner.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Listed)
}

func TestSweepRunner_StartStop(t *testing.T) {
	t.Parallel()

	_, queue := newQueueDB(t)
	mirror := &sweepMirror{}
	runner := NewSweepRunner(queue, mirror,
		SweepConfig{Interval: 10 * time.Millisecond, RetryBase: time.Millisecond}, nil)

	entry := enqueueCardEntry(t, queue, uuid.New(), time.Now())

	runner.Start()
	defer runner.Stop()

	require.Eventually(t, func() bool {
		got, err := queue.GetByID(context.Background(), entry.ID)
		return err == nil && got.Status == domain.SyncStatusDone
	}, 2*time.Second, 10*time.Millisecond)
}
