package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
)

// ReviewLogStore defines the interface for review log persistence.
// Review logs are immutable once written; there are no update or delete
// operations.
type ReviewLogStore interface {
	// Create saves a review log entry.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// ListRecentByUser retrieves up to limit of the user's most recent
	// review log entries, newest first.
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	// CountByCard returns the number of review log entries for a card.
	CountByCard(ctx context.Context, cardID uuid.UUID) (int, error)

	// WithTx returns a ReviewLogStore bound to the given transaction, for
	// use with RunInTransaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
