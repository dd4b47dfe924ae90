// Package schedule implements the spaced-repetition scheduling core: the
// date/timezone calculator, the phase state machine, the assignment-based
// due calculator, and the slot balancer.
//
// Everything in this package is a pure, synchronous function of its inputs.
// Timezone and "now" are always explicit parameters, never ambient state, so
// the package is testable without mocks and safe to call from any goroutine.
package schedule

import (
	"errors"
	"time"

	"github.com/wellversed/memoryd/internal/domain"
)

// Common errors
var (
	ErrNilCard = errors.New("card cannot be nil")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// ApplyReview computes the card state that results from one review
	// outcome: next phase, progress count, and due date. It validates the
	// card first; an unrecognized phase or negative progress is rejected,
	// never corrected.
	ApplyReview(
		card *domain.Card,
		wasSuccessful bool,
		countsTowardProgress bool,
		day DayContext,
	) (Revision, error)

	// IsDue reports whether the card's assignment matches the user's current
	// calendar day. Archived cards are never due.
	IsDue(card *domain.Card, day DayContext) (bool, error)

	// NextDue computes the due date for a card in the given phase as of the
	// given day, used when a card's phase or assignment is edited manually.
	NextDue(phase domain.Phase, day DayContext) (time.Time, error)

	// PickAssignment chooses the recurring slot for a card newly entering
	// the given phase, balancing load across the valid slots.
	PickAssignment(phase domain.Phase, loads SlotLoads) (Assignment, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with the default phase
// thresholds.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom thresholds.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// ApplyReview implements the Service interface.
func (s *defaultService) ApplyReview(
	card *domain.Card,
	wasSuccessful bool,
	countsTowardProgress bool,
	day DayContext,
) (Revision, error) {
	if card == nil {
		return Revision{}, ErrNilCard
	}

	if err := card.Validate(); err != nil {
		return Revision{}, err
	}

	return applyReview(card, wasSuccessful, countsTowardProgress, day, s.params), nil
}

// IsDue implements the Service interface.
func (s *defaultService) IsDue(card *domain.Card, day DayContext) (bool, error) {
	if card == nil {
		return false, ErrNilCard
	}

	if card.Archived {
		return false, nil
	}

	if err := card.Validate(); err != nil {
		return false, err
	}

	return isDue(card, day), nil
}

// NextDue implements the Service interface.
func (s *defaultService) NextDue(phase domain.Phase, day DayContext) (time.Time, error) {
	if !phase.IsValid() {
		return time.Time{}, domain.ErrInvalidPhase
	}

	return nextDueDate(phase, day), nil
}

// PickAssignment implements the Service interface.
func (s *defaultService) PickAssignment(
	phase domain.Phase,
	loads SlotLoads,
) (Assignment, error) {
	if !phase.IsValid() {
		return Assignment{}, domain.ErrInvalidPhase
	}

	return pickAssignment(phase, loads)
}
