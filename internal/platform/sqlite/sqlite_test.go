package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
)

// newTestDB opens an in-memory database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, MigrateUp(db))
	return db
}

// mustCreateVerse inserts a verse and returns it.
func mustCreateVerse(t *testing.T, db *sql.DB, reference string) *domain.Verse {
	t.Helper()

	verse, err := domain.NewVerse(reference, "For God so loved the world...", "ESV", time.Now())
	require.NoError(t, err)
	require.NoError(t, NewVerseStore(db, nil).Create(context.Background(), verse))
	return verse
}

// mustCreateCard inserts a fresh daily card for the given user and verse.
func mustCreateCard(t *testing.T, db *sql.DB, userID, verseID uuid.UUID) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(userID, verseID, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, NewCardStore(db, nil).Create(context.Background(), card))
	return card
}
