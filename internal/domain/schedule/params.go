package schedule

import "github.com/wellversed/memoryd/internal/domain"

// Params defines the configurable thresholds of the phase progression
// algorithm: how many successful reviews a card needs in each phase before
// advancing to the next cadence. The monthly phase is terminal and has no
// threshold.
type Params struct {
	AdvanceThresholds map[domain.Phase]int
}

// NewDefaultParams creates a new Params instance with the standard
// progression: 14 successes in daily, then 4 in weekly, then 4 in biweekly.
func NewDefaultParams() *Params {
	return &Params{
		AdvanceThresholds: map[domain.Phase]int{
			domain.PhaseDaily:    14,
			domain.PhaseWeekly:   4,
			domain.PhaseBiweekly: 4,
		},
	}
}

// threshold returns the number of successes required to leave the given
// phase, and false when the phase never advances.
func (p *Params) threshold(phase domain.Phase) (int, bool) {
	t, ok := p.AdvanceThresholds[phase]
	return t, ok
}
