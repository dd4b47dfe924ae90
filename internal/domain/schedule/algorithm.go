package schedule

import (
	"time"

	"github.com/wellversed/memoryd/internal/domain"
)

// Revision is the new scheduling state produced by applying one review to a
// card. It is a value, not a mutation: callers copy its fields onto the card
// once the surrounding write succeeds.
type Revision struct {
	Phase         domain.Phase
	PhaseProgress int
	NextDueDate   time.Time

	// Advanced is true when the review pushed the card into a new phase, in
	// which case the card needs a fresh assignment slot for that phase.
	Advanced bool
}

// applyReview computes the next phase, progress count, and due date for a
// card given a review outcome.
//
// Behavior:
//   - An uncounted review (extra same-day repetition) never changes phase or
//     progress; the due date is still recomputed from the current phase.
//   - A failed review never changes phase or progress either.
//   - A successful counted review increments progress. When progress reaches
//     the phase's threshold and the phase is not terminal, the card advances
//     to the next phase with progress reset to zero, and the due date is
//     computed from the new phase. Monthly cards accumulate progress without
//     bound and never advance.
//
// The due date is a pure function of the (possibly new) phase and the user's
// current calendar day, never of the outcome itself.
func applyReview(
	card *domain.Card,
	wasSuccessful bool,
	countsTowardProgress bool,
	day DayContext,
	params *Params,
) Revision {
	phase := card.Phase
	progress := card.PhaseProgress
	advanced := false

	if wasSuccessful && countsTowardProgress {
		progress++

		if threshold, ok := params.threshold(phase); ok && progress >= threshold {
			next, _ := phase.Next()
			phase = next
			progress = 0
			advanced = true
		}
	}

	return Revision{
		Phase:         phase,
		PhaseProgress: progress,
		NextDueDate:   nextDueDate(phase, day),
		Advanced:      advanced,
	}
}

// nextDueDate computes when a card in the given phase is next due, counted
// from the user's current calendar day: daily +1 day, weekly +7, biweekly
// +14, monthly +1 calendar month clamped to the last valid day.
func nextDueDate(phase domain.Phase, day DayContext) time.Time {
	switch phase {
	case domain.PhaseDaily:
		return day.Date.AddDate(0, 0, 1)
	case domain.PhaseWeekly:
		return day.Date.AddDate(0, 0, 7)
	case domain.PhaseBiweekly:
		return day.Date.AddDate(0, 0, 14)
	default: // monthly; callers validate the phase before reaching here
		return addMonthClamped(day.Date)
	}
}

// isDue decides whether a non-archived card's assignment matches the user's
// current calendar day. Archived cards are handled by the caller.
func isDue(card *domain.Card, day DayContext) bool {
	switch card.Phase {
	case domain.PhaseDaily:
		return true
	case domain.PhaseWeekly:
		return card.AssignedDayOfWeek != nil &&
			*card.AssignedDayOfWeek == day.DayOfWeek
	case domain.PhaseBiweekly:
		return card.AssignedDayOfWeek != nil &&
			card.AssignedWeekParity != nil &&
			*card.AssignedDayOfWeek == day.DayOfWeek &&
			*card.AssignedWeekParity == day.WeekParity
	case domain.PhaseMonthly:
		// Days 29-31 never match any assignment; monthly slots only exist on
		// days 1-28 so every month contains every slot.
		return card.AssignedDayOfMonth != nil &&
			day.DayOfMonth <= 28 &&
			*card.AssignedDayOfMonth == day.DayOfMonth
	default:
		return false
	}
}
