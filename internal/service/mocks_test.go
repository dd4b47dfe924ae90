package service

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/platform/sqlite"
)

// fakeMirror is an in-memory MirrorStore with per-entity failure injection.
type fakeMirror struct {
	mu        sync.Mutex
	failAll   bool
	failCards map[uuid.UUID]bool

	verses     []uuid.UUID
	cards      []uuid.UUID
	reviewLogs []uuid.UUID
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{failCards: make(map[uuid.UUID]bool)}
}

func (f *fakeMirror) CreateReviewLog(_ context.Context, log *domain.ReviewLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	f.reviewLogs = append(f.reviewLogs, log.ID)
	return nil
}

func (f *fakeMirror) UpsertCard(_ context.Context, card *domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failCards[card.ID] {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	f.cards = append(f.cards, card.ID)
	return nil
}

func (f *fakeMirror) UpsertVerse(_ context.Context, verse *domain.Verse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return &remote.StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	f.verses = append(f.verses, verse.ID)
	return nil
}

// fakeResolver answers from a fixed table of resolutions.
type fakeResolver struct {
	resolutions map[string]*remote.Resolution
	err         error
}

func (f *fakeResolver) Resolve(_ context.Context, rawReference string) (*remote.Resolution, error) {
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.resolutions[rawReference]; ok {
		return res, nil
	}
	return nil, remote.ErrReferenceNotFound
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.MigrateUp(db))
	return db
}

func mustCreateVerse(t *testing.T, db *sql.DB, reference string) *domain.Verse {
	t.Helper()

	verse, err := domain.NewVerse(reference, "text of "+reference, "ESV", time.Now())
	require.NoError(t, err)
	require.NoError(t, sqlite.NewVerseStore(db, nil).Create(context.Background(), verse))
	return verse
}

func mustCreateCard(t *testing.T, db *sql.DB, userID uuid.UUID, now time.Time) *domain.Card {
	t.Helper()

	verse := mustCreateVerse(t, db, "Psalm 23:"+uuid.NewString()[:8])
	card, err := domain.NewCard(userID, verse.ID, now)
	require.NoError(t, err)
	require.NoError(t, sqlite.NewCardStore(db, nil).Create(context.Background(), card))
	return card
}
