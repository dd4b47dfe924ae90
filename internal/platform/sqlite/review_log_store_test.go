package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
)

func TestReviewLogStore_CreateAndListRecent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logs := NewReviewLogStore(db, nil)
	ctx := context.Background()

	userID := uuid.New()
	verse := mustCreateVerse(t, db, "John 3:16")
	card := mustCreateCard(t, db, userID, verse.ID)

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		log, err := domain.NewReviewLog(userID, card.ID, i != 1, true, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, logs.Create(ctx, log))
	}

	// Newest first, limit respected.
	recent, err := logs.ListRecentByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(2*time.Hour), recent[0].ReviewedAt)
	assert.Equal(t, base.Add(time.Hour), recent[1].ReviewedAt)
	assert.False(t, recent[1].WasSuccessful)

	count, err := logs.CountByCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Another user's history is empty.
	recent, err = logs.ListRecentByUser(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
