package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_StartRules(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	userID := uuid.New()
	now := time.Now()

	_, err := m.Start(userID, nil, now)
	assert.ErrorIs(t, err, ErrSessionEmpty)

	state, err := m.Start(userID, []uuid.UUID{uuid.New(), uuid.New()}, now)
	require.NoError(t, err)
	assert.Len(t, state.Queue, 2)
	assert.Equal(t, 0, state.Position)
	assert.False(t, state.Revealed)

	_, err = m.Start(userID, []uuid.UUID{uuid.New()}, now)
	assert.ErrorIs(t, err, ErrSessionActive)

	// A different user's session is independent.
	_, err = m.Start(uuid.New(), []uuid.UUID{uuid.New()}, now)
	assert.NoError(t, err)
}

func TestSessionManager_OutcomeRequiresReveal(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	userID := uuid.New()
	cardA := uuid.New()

	_, err := m.Start(userID, []uuid.UUID{cardA}, time.Now())
	require.NoError(t, err)

	_, err = m.RecordOutcome(userID, true, time.Now())
	assert.ErrorIs(t, err, ErrOutcomeBeforeReveal)

	require.NoError(t, m.Reveal(userID))

	state, err := m.RecordOutcome(userID, true, time.Now())
	require.NoError(t, err)
	assert.True(t, state.Complete())
	assert.Equal(t, cardA, state.Outcomes[0].CardID)

	// The queue is exhausted now.
	err = m.Reveal(userID)
	assert.ErrorIs(t, err, ErrSessionComplete)
	_, err = m.RecordOutcome(userID, true, time.Now())
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestSessionManager_UndoStepsBack(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	userID := uuid.New()
	cardA := uuid.New()
	cardB := uuid.New()
	now := time.Now()

	_, err := m.Start(userID, []uuid.UUID{cardA, cardB}, now)
	require.NoError(t, err)

	_, err = m.UndoLast(userID)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	require.NoError(t, m.Reveal(userID))
	_, err = m.RecordOutcome(userID, true, now)
	require.NoError(t, err)

	require.NoError(t, m.Reveal(userID))
	_, err = m.RecordOutcome(userID, false, now)
	require.NoError(t, err)

	undone, err := m.UndoLast(userID)
	require.NoError(t, err)
	assert.Equal(t, cardB, undone.CardID)
	assert.False(t, undone.WasSuccessful)

	// Back on card B, already revealed, only card A's outcome retained.
	state, err := m.Snapshot(userID)
	require.NoError(t, err)
	assert.Equal(t, cardB, state.CurrentCard())
	assert.True(t, state.Revealed)
	require.Len(t, state.Outcomes, 1)
	assert.Equal(t, cardA, state.Outcomes[0].CardID)

	// Re-grade card B as successful this time.
	state, err = m.RecordOutcome(userID, true, now)
	require.NoError(t, err)
	require.Len(t, state.Outcomes, 2)
	assert.True(t, state.Outcomes[1].WasSuccessful)
}

func TestSessionManager_FinishAndAbandon(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	userID := uuid.New()
	cardA := uuid.New()
	now := time.Now()

	assert.ErrorIs(t, m.Abandon(userID), ErrNoActiveSession)
	_, err := m.Finish(userID)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = m.Start(userID, []uuid.UUID{cardA}, now)
	require.NoError(t, err)

	// Nothing recorded yet; finishing is refused, abandoning works.
	_, err = m.Finish(userID)
	assert.ErrorIs(t, err, ErrSessionEmpty)
	require.NoError(t, m.Abandon(userID))

	// A fresh session can start immediately after abandoning.
	_, err = m.Start(userID, []uuid.UUID{cardA}, now)
	require.NoError(t, err)
	require.NoError(t, m.Reveal(userID))
	_, err = m.RecordOutcome(userID, true, now)
	require.NoError(t, err)

	outcomes, err := m.Finish(userID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, cardA, outcomes[0].CardID)

	// Finishing removed the session.
	_, err = m.Snapshot(userID)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
