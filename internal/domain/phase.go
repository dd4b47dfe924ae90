package domain

import "errors"

// Phase represents the review cadence a card is currently in.
// Cards progress daily -> weekly -> biweekly -> monthly; monthly is terminal.
type Phase string

// Possible phase values
const (
	PhaseDaily    Phase = "daily"
	PhaseWeekly   Phase = "weekly"
	PhaseBiweekly Phase = "biweekly"
	PhaseMonthly  Phase = "monthly"
)

// ErrInvalidPhase is returned when a phase value is not one of the known cadences.
var ErrInvalidPhase = errors.New("invalid phase")

// IsValid reports whether the phase is one of the known cadences.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDaily, PhaseWeekly, PhaseBiweekly, PhaseMonthly:
		return true
	default:
		return false
	}
}

// Next returns the phase a card advances into, and false when the phase is
// terminal (monthly) or unknown.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseDaily:
		return PhaseWeekly, true
	case PhaseWeekly:
		return PhaseBiweekly, true
	case PhaseBiweekly:
		return PhaseMonthly, true
	default:
		return "", false
	}
}

// ParsePhase converts a string into a Phase.
// Returns ErrInvalidPhase for unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.IsValid() {
		return "", ErrInvalidPhase
	}
	return p, nil
}
