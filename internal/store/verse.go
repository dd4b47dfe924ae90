package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
)

// VerseStore defines the interface for verse persistence.
// Verse text is immutable: there is deliberately no update operation.
type VerseStore interface {
	// Create saves a new verse to the store.
	// Returns ErrDuplicate if a verse with the same reference and
	// translation already exists.
	Create(ctx context.Context, verse *domain.Verse) error

	// GetByID retrieves a verse by its unique ID.
	// Returns ErrVerseNotFound if the verse does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Verse, error)

	// GetByReference retrieves a verse by its canonical reference and
	// translation. Returns ErrVerseNotFound if no such verse is cached.
	GetByReference(ctx context.Context, reference, translation string) (*domain.Verse, error)

	// WithTx returns a VerseStore bound to the given transaction, for use
	// with RunInTransaction.
	WithTx(tx *sql.Tx) VerseStore
}
