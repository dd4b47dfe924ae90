package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewLog validation errors
var (
	// ErrReviewLogIDEmpty is returned when a review log ID is empty or nil.
	ErrReviewLogIDEmpty = errors.New("review log ID cannot be empty")

	// ErrReviewLogUserIDEmpty is returned when a review log's user ID is empty or nil.
	ErrReviewLogUserIDEmpty = errors.New("review log user ID cannot be empty")

	// ErrReviewLogCardIDEmpty is returned when a review log's card ID is empty or nil.
	ErrReviewLogCardIDEmpty = errors.New("review log card ID cannot be empty")

	// ErrReviewLogTimeZero is returned when a review log's review time is unset.
	ErrReviewLogTimeZero = errors.New("review time cannot be zero")
)

// ReviewLog is the immutable record of a single committed review. One row is
// written per outcome at session commit time; rows are never updated or
// deleted afterwards.
type ReviewLog struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	CardID                uuid.UUID `json:"card_id"`
	WasSuccessful         bool      `json:"was_successful"`
	CountedTowardProgress bool      `json:"counted_toward_progress"`
	ReviewedAt            time.Time `json:"reviewed_at"`
}

// NewReviewLog creates a review log entry for a committed outcome.
// Returns an error if validation fails.
func NewReviewLog(
	userID, cardID uuid.UUID,
	wasSuccessful, countedTowardProgress bool,
	reviewedAt time.Time,
) (*ReviewLog, error) {
	log := &ReviewLog{
		ID:                    uuid.New(),
		UserID:                userID,
		CardID:                cardID,
		WasSuccessful:         wasSuccessful,
		CountedTowardProgress: countedTowardProgress,
		ReviewedAt:            reviewedAt.UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	return log, nil
}

// Validate checks if the ReviewLog has valid data.
func (l *ReviewLog) Validate() error {
	if l.ID == uuid.Nil {
		return ErrReviewLogIDEmpty
	}

	if l.UserID == uuid.Nil {
		return ErrReviewLogUserIDEmpty
	}

	if l.CardID == uuid.Nil {
		return ErrReviewLogCardIDEmpty
	}

	if l.ReviewedAt.IsZero() {
		return ErrReviewLogTimeZero
	}

	return nil
}
