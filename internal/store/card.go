package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/domain/schedule"
)

// CardStore defines the interface for card persistence.
type CardStore interface {
	// Create saves a new card to the store.
	// Returns ErrCardExists if the user already has a card for the verse.
	// Returns validation errors wrapped in ErrInvalidEntity if the card data
	// is invalid, including any violation of the phase/assignment invariant.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByUserAndVerse retrieves the user's card for a verse, archived or
	// not. Returns ErrCardNotFound if none exists.
	GetByUserAndVerse(ctx context.Context, userID, verseID uuid.UUID) (*domain.Card, error)

	// Update persists the card's current state.
	// The card is validated first; an inconsistent assignment is rejected as
	// ErrInvalidEntity, never corrected.
	// Returns ErrCardNotFound if the card does not exist.
	Update(ctx context.Context, card *domain.Card) error

	// ListActiveByUser retrieves all non-archived cards for a user, ordered
	// by creation time. The due calculator evaluates these against the
	// user's current calendar day.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// SlotLoads counts the user's non-archived cards per assignment slot,
	// feeding the slot balancer when a card advances into a new phase.
	SlotLoads(ctx context.Context, userID uuid.UUID) (schedule.SlotLoads, error)

	// WithTx returns a CardStore bound to the given transaction, for use
	// with RunInTransaction.
	WithTx(tx *sql.Tx) CardStore
}
