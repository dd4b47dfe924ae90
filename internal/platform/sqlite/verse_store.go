package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/store"
)

// SQLiteVerseStore implements the store.VerseStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteVerseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewVerseStore creates a new SQLite implementation of the VerseStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, the default
// logger is used.
func NewVerseStore(db store.DBTX, logger *slog.Logger) *SQLiteVerseStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteVerseStore{
		db:     db,
		logger: logger.With(slog.String("component", "verse_store")),
	}
}

// Ensure SQLiteVerseStore implements store.VerseStore interface
var _ store.VerseStore = (*SQLiteVerseStore)(nil)

// WithTx implements store.VerseStore.WithTx
func (s *SQLiteVerseStore) WithTx(tx *sql.Tx) store.VerseStore {
	return &SQLiteVerseStore{db: tx, logger: s.logger}
}

// Create implements store.VerseStore.Create
func (s *SQLiteVerseStore) Create(ctx context.Context, verse *domain.Verse) error {
	if err := verse.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verses (id, reference, text, translation, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		verse.ID.String(),
		verse.Reference,
		verse.Text,
		verse.Translation,
		verse.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return store.NewStoreError("verse", "create", "failed to insert verse", err)
	}

	return nil
}

// GetByID implements store.VerseStore.GetByID
func (s *SQLiteVerseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, text, translation, created_at
		FROM verses WHERE id = ?
	`, id.String())

	verse, err := scanVerse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVerseNotFound
		}
		return nil, store.NewStoreError("verse", "get", "failed to scan verse", err)
	}

	return verse, nil
}

// GetByReference implements store.VerseStore.GetByReference
func (s *SQLiteVerseStore) GetByReference(
	ctx context.Context,
	reference, translation string,
) (*domain.Verse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, text, translation, created_at
		FROM verses WHERE reference = ? AND translation = ?
	`, reference, translation)

	verse, err := scanVerse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVerseNotFound
		}
		return nil, store.NewStoreError("verse", "get_by_reference", "failed to scan verse", err)
	}

	return verse, nil
}

// scanVerse reads one verse row.
func scanVerse(row *sql.Row) (*domain.Verse, error) {
	var (
		verse     domain.Verse
		id        string
		createdAt time.Time
	)

	if err := row.Scan(&id, &verse.Reference, &verse.Text, &verse.Translation, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid verse ID %q: %w", id, err)
	}

	verse.ID = parsed
	verse.CreatedAt = createdAt.UTC()
	return &verse, nil
}

// isUniqueViolation checks if the given error is a SQLite unique constraint
// violation. The pure-Go driver reports constraint failures in the error
// string rather than a typed code on the public API.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
