package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/domain/schedule"
	"github.com/wellversed/memoryd/internal/platform/sqlite"
	"github.com/wellversed/memoryd/internal/store"
)

type cardFixture struct {
	db     *sql.DB
	svc    *CardService
	cards  *sqlite.SQLiteCardStore
	queue  *sqlite.SQLiteSyncQueueStore
	mirror *fakeMirror
}

func newCardFixture(t *testing.T) *cardFixture {
	t.Helper()

	db := newTestDB(t)
	cards := sqlite.NewCardStore(db, nil)
	logs := sqlite.NewReviewLogStore(db, nil)
	queue := sqlite.NewSyncQueueStore(db, nil)
	mirror := newFakeMirror()

	return &cardFixture{
		db:     db,
		svc:    NewCardService(cards, logs, queue, mirror, schedule.NewDefaultService(), nil, nil),
		cards:  cards,
		queue:  queue,
		mirror: mirror,
	}
}

func TestCardService_DueCards(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// Sunday 2024-01-07, day of week 1.
	now := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	daily := mustCreateCard(t, f.db, userID, now)

	sunday := 1
	weeklyDue := mustCreateCard(t, f.db, userID, now)
	weeklyDue.Phase = domain.PhaseWeekly
	weeklyDue.AssignedDayOfWeek = &sunday
	require.NoError(t, f.cards.Update(ctx, weeklyDue))

	monday := 2
	weeklyOff := mustCreateCard(t, f.db, userID, now)
	weeklyOff.Phase = domain.PhaseWeekly
	weeklyOff.AssignedDayOfWeek = &monday
	require.NoError(t, f.cards.Update(ctx, weeklyOff))

	archived := mustCreateCard(t, f.db, userID, now)
	archived.Archived = true
	require.NoError(t, f.cards.Update(ctx, archived))

	due, err := f.svc.DueCards(ctx, userID, now, "UTC")
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(due))
	for _, c := range due {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, daily.ID)
	assert.Contains(t, ids, weeklyDue.ID)
	assert.NotContains(t, ids, weeklyOff.ID)
	assert.NotContains(t, ids, archived.ID)
}

func TestCardService_SetPhase(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	card := mustCreateCard(t, f.db, userID, now)
	card.PhaseProgress = 9
	require.NoError(t, f.cards.Update(ctx, card))

	updated, err := f.svc.SetPhase(ctx, userID, card.ID, domain.PhaseWeekly, now, "UTC")
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseWeekly, updated.Phase)
	assert.Equal(t, 0, updated.PhaseProgress)
	require.NotNil(t, updated.AssignedDayOfWeek)
	assert.Nil(t, updated.AssignedDayOfMonth)
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), updated.NextDueDate)
	assert.Contains(t, f.mirror.cards, card.ID)

	// Moving back to daily clears the assignment.
	back, err := f.svc.SetPhase(ctx, userID, card.ID, domain.PhaseDaily, now, "UTC")
	require.NoError(t, err)
	assert.Nil(t, back.AssignedDayOfWeek)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), back.NextDueDate)
}

func TestCardService_SetAssignment(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	card := mustCreateCard(t, f.db, userID, now)
	_, err := f.svc.SetPhase(ctx, userID, card.ID, domain.PhaseWeekly, now, "UTC")
	require.NoError(t, err)

	wednesday := 4
	updated, err := f.svc.SetAssignment(ctx, userID, card.ID,
		schedule.Assignment{DayOfWeek: &wednesday}, now, "UTC")
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedDayOfWeek)
	assert.Equal(t, wednesday, *updated.AssignedDayOfWeek)

	// A monthly slot on a weekly card is inconsistent and rejected as-is.
	tenth := 10
	_, err = f.svc.SetAssignment(ctx, userID, card.ID,
		schedule.Assignment{DayOfMonth: &tenth}, now, "UTC")
	assert.ErrorIs(t, err, domain.ErrInconsistentAssignment)

	// The rejected edit did not touch the stored card.
	got, err := f.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedDayOfWeek)
	assert.Equal(t, wednesday, *got.AssignedDayOfWeek)
}

func TestCardService_Archive(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	card := mustCreateCard(t, f.db, userID, now)

	updated, err := f.svc.Archive(ctx, userID, card.ID, now)
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	due, err := f.svc.DueCards(ctx, userID, now, "UTC")
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCardService_OwnershipChecks(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	now := time.Now()

	card := mustCreateCard(t, f.db, uuid.New(), now)

	_, err := f.svc.SetPhase(ctx, uuid.New(), card.ID, domain.PhaseWeekly, now, "UTC")
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	_, err = f.svc.Archive(ctx, uuid.New(), card.ID, now)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardService_PendingSync(t *testing.T) {
	t.Parallel()

	f := newCardFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	card := mustCreateCard(t, f.db, userID, now)

	entry, err := domain.NewSyncQueueEntry(userID, domain.SyncOpUpsertCard, card.ID,
		domain.UpsertCardPayload{Card: *card}, now)
	require.NoError(t, err)
	require.NoError(t, f.queue.Enqueue(ctx, entry))

	counts, err := f.svc.PendingSync(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.SyncStatusPending])
}
