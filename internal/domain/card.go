package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardVerseIDEmpty is returned when a card's verse ID is empty or nil.
	ErrCardVerseIDEmpty = errors.New("card verse ID cannot be empty")

	// ErrNegativeProgress is returned when a card's phase progress is negative.
	ErrNegativeProgress = errors.New("phase progress cannot be negative")

	// ErrNegativeStreak is returned when a card's streak counters are negative.
	ErrNegativeStreak = errors.New("streak counters cannot be negative")

	// ErrInconsistentAssignment is returned when a card's assignment fields do
	// not match the set required by its phase. This is a data-integrity error
	// and is never silently corrected.
	ErrInconsistentAssignment = errors.New("assignment fields inconsistent with phase")

	// ErrDayOfWeekRange is returned when an assigned day of week is outside 1-7.
	ErrDayOfWeekRange = errors.New("assigned day of week must be between 1 and 7")

	// ErrWeekParityRange is returned when an assigned week parity is not 0 or 1.
	ErrWeekParityRange = errors.New("assigned week parity must be 0 or 1")

	// ErrDayOfMonthRange is returned when an assigned day of month is outside
	// 1-28. Days 29-31 are deliberately unassignable so monthly cards never
	// depend on variable-length months.
	ErrDayOfMonthRange = errors.New("assigned day of month must be between 1 and 28")
)

// Card tracks one user's memorization state for one verse.
//
// The assignment fields are mutually exclusive by phase: daily cards carry
// none, weekly cards carry a day of week, biweekly cards a day of week plus a
// week parity, and monthly cards a day of month. Validate enforces this.
type Card struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	VerseID            uuid.UUID  `json:"verse_id"`
	Phase              Phase      `json:"phase"`
	PhaseProgress      int        `json:"phase_progress"`
	AssignedDayOfWeek  *int       `json:"assigned_day_of_week,omitempty"`  // 1-7, Sunday=1
	AssignedWeekParity *int       `json:"assigned_week_parity,omitempty"`  // 0 or 1
	AssignedDayOfMonth *int       `json:"assigned_day_of_month,omitempty"` // 1-28
	NextDueDate        time.Time  `json:"next_due_date"`                   // calendar date, midnight UTC
	CurrentStreak      int        `json:"current_streak"`
	BestStreak         int        `json:"best_streak"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at,omitempty"`
	Archived           bool       `json:"archived"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewCard creates a card for a freshly added verse. New cards always start in
// the daily phase with zero progress, due one day after creation.
// Returns an error if validation fails.
func NewCard(userID, verseID uuid.UUID, now time.Time) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:            uuid.New(),
		UserID:        userID,
		VerseID:       verseID,
		Phase:         PhaseDaily,
		PhaseProgress: 0,
		NextDueDate:   midnightUTC(now.AddDate(0, 0, 1)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation, including any violation of
// the phase/assignment invariant.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.VerseID == uuid.Nil {
		return ErrCardVerseIDEmpty
	}

	if !c.Phase.IsValid() {
		return ErrInvalidPhase
	}

	if c.PhaseProgress < 0 {
		return ErrNegativeProgress
	}

	if c.CurrentStreak < 0 || c.BestStreak < 0 {
		return ErrNegativeStreak
	}

	return c.validateAssignment()
}

// validateAssignment enforces the phase/assignment invariant and the valid
// ranges of each assignment field.
func (c *Card) validateAssignment() error {
	if c.AssignedDayOfWeek != nil && (*c.AssignedDayOfWeek < 1 || *c.AssignedDayOfWeek > 7) {
		return ErrDayOfWeekRange
	}
	if c.AssignedWeekParity != nil && (*c.AssignedWeekParity < 0 || *c.AssignedWeekParity > 1) {
		return ErrWeekParityRange
	}
	if c.AssignedDayOfMonth != nil && (*c.AssignedDayOfMonth < 1 || *c.AssignedDayOfMonth > 28) {
		return ErrDayOfMonthRange
	}

	switch c.Phase {
	case PhaseDaily:
		if c.AssignedDayOfWeek != nil || c.AssignedWeekParity != nil || c.AssignedDayOfMonth != nil {
			return ErrInconsistentAssignment
		}
	case PhaseWeekly:
		if c.AssignedDayOfWeek == nil || c.AssignedWeekParity != nil || c.AssignedDayOfMonth != nil {
			return ErrInconsistentAssignment
		}
	case PhaseBiweekly:
		if c.AssignedDayOfWeek == nil || c.AssignedWeekParity == nil || c.AssignedDayOfMonth != nil {
			return ErrInconsistentAssignment
		}
	case PhaseMonthly:
		if c.AssignedDayOfMonth == nil || c.AssignedDayOfWeek != nil || c.AssignedWeekParity != nil {
			return ErrInconsistentAssignment
		}
	}

	return nil
}

// Clone returns a deep copy of the card. Pointer-typed fields are copied so
// mutating the clone never touches the original.
func (c *Card) Clone() *Card {
	clone := *c
	clone.AssignedDayOfWeek = copyIntPtr(c.AssignedDayOfWeek)
	clone.AssignedWeekParity = copyIntPtr(c.AssignedWeekParity)
	clone.AssignedDayOfMonth = copyIntPtr(c.AssignedDayOfMonth)
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		clone.LastReviewedAt = &t
	}
	return &clone
}

// ClearAssignment removes all assignment fields. Used when a card moves back
// to the daily phase through a manual edit.
func (c *Card) ClearAssignment() {
	c.AssignedDayOfWeek = nil
	c.AssignedWeekParity = nil
	c.AssignedDayOfMonth = nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// midnightUTC truncates a timestamp to its calendar date at midnight UTC.
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
