package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full path from session to committed card state: outcomes recorded through
// the manager, finished, and run through the engine.
func TestSessionCommit_UndoneOutcomeLeavesCardUntouched(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	m := NewSessionManager()
	ctx := context.Background()
	userID := uuid.New()

	cardA := f.newCard(t, userID, commitNow)
	cardB := f.newCard(t, userID, commitNow)

	_, err := m.Start(userID, []uuid.UUID{cardA.ID, cardB.ID}, commitNow)
	require.NoError(t, err)

	require.NoError(t, m.Reveal(userID))
	_, err = m.RecordOutcome(userID, true, commitNow)
	require.NoError(t, err)

	require.NoError(t, m.Reveal(userID))
	_, err = m.RecordOutcome(userID, false, commitNow)
	require.NoError(t, err)

	// Undo pops card B's failure; the session ends with only A's outcome.
	_, err = m.UndoLast(userID)
	require.NoError(t, err)

	outcomes, err := m.Finish(userID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	result, err := f.engine.CommitSession(ctx, userID, outcomes, commitNow, "UTC")
	require.NoError(t, err)
	assert.Equal(t, 1, result.PersistedLocally)

	gotA, err := f.cards.GetByID(ctx, cardA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotA.PhaseProgress)
	require.NotNil(t, gotA.LastReviewedAt)

	// The undone outcome left no trace on card B.
	gotB, err := f.cards.GetByID(ctx, cardB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotB.PhaseProgress)
	assert.Equal(t, 0, gotB.CurrentStreak)
	assert.Nil(t, gotB.LastReviewedAt)

	logs, err := f.logs.ListRecentByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, cardA.ID, logs[0].CardID)
}

func TestSessionAbandon_LeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	m := NewSessionManager()
	ctx := context.Background()
	userID := uuid.New()

	cards := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		cards = append(cards, f.newCard(t, userID, commitNow).ID)
	}

	_, err := m.Start(userID, cards, commitNow)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Reveal(userID))
		_, err = m.RecordOutcome(userID, i%2 == 0, commitNow)
		require.NoError(t, err)
	}

	require.NoError(t, m.Abandon(userID))

	// Nothing was persisted: no progress, no logs, no queue entries, no
	// mirror traffic.
	for _, id := range cards {
		got, err := f.cards.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, got.PhaseProgress)
		assert.Nil(t, got.LastReviewedAt)
	}

	logs, err := f.logs.ListRecentByUser(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	entries, err := f.queue.ListRetryable(ctx, 8, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.mirror.cards)
	assert.Empty(t, f.mirror.reviewLogs)
}
