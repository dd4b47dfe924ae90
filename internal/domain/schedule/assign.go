package schedule

import (
	"errors"

	"github.com/wellversed/memoryd/internal/domain"
)

// ErrNoAssignmentForPhase is returned when an assignment is requested for a
// phase that does not use assignment slots (daily).
var ErrNoAssignmentForPhase = errors.New("phase does not use assignment slots")

// Assignment is the recurring review slot a non-daily card is pinned to.
// Exactly the fields relevant to the card's phase are set; the rest are nil.
type Assignment struct {
	DayOfWeek  *int // 1-7, weekly and biweekly
	WeekParity *int // 0 or 1, biweekly only
	DayOfMonth *int // 1-28, monthly only
}

// BiweeklySlot identifies one weekday/parity combination.
type BiweeklySlot struct {
	DayOfWeek  int
	WeekParity int
}

// SlotLoads reports how many of a user's active cards currently occupy each
// candidate slot. Slots with no cards may be absent from the maps; absent
// means zero.
type SlotLoads struct {
	Weekday  map[int]int          // weekly cards per day of week
	Biweekly map[BiweeklySlot]int // biweekly cards per weekday/parity pair
	Monthly  map[int]int          // monthly cards per day of month (1-28)
}

// pickAssignment chooses the slot for a card newly entering the given phase.
//
// Policy: the least-loaded valid slot wins, with ties broken by the lowest
// slot number (and for biweekly, the lower parity). This spreads review load
// across the week and month instead of clustering every advancing card onto
// the same day, and it is deterministic for a given load snapshot.
func pickAssignment(phase domain.Phase, loads SlotLoads) (Assignment, error) {
	switch phase {
	case domain.PhaseWeekly:
		day := leastLoadedDay(loads.Weekday, 7)
		return Assignment{DayOfWeek: &day}, nil

	case domain.PhaseBiweekly:
		slot := leastLoadedBiweekly(loads.Biweekly)
		return Assignment{DayOfWeek: &slot.DayOfWeek, WeekParity: &slot.WeekParity}, nil

	case domain.PhaseMonthly:
		day := leastLoadedDay(loads.Monthly, 28)
		return Assignment{DayOfMonth: &day}, nil

	default:
		return Assignment{}, ErrNoAssignmentForPhase
	}
}

// leastLoadedDay scans days 1..max and returns the first day with the lowest
// load.
func leastLoadedDay(load map[int]int, max int) int {
	best := 1
	bestLoad := load[1]
	for day := 2; day <= max; day++ {
		if load[day] < bestLoad {
			best = day
			bestLoad = load[day]
		}
	}
	return best
}

// leastLoadedBiweekly scans weekday 1..7 crossed with parity 0..1, ordered by
// weekday then parity, and returns the first slot with the lowest load.
func leastLoadedBiweekly(load map[BiweeklySlot]int) BiweeklySlot {
	best := BiweeklySlot{DayOfWeek: 1, WeekParity: 0}
	bestLoad := load[best]
	for day := 1; day <= 7; day++ {
		for parity := 0; parity <= 1; parity++ {
			slot := BiweeklySlot{DayOfWeek: day, WeekParity: parity}
			if load[slot] < bestLoad {
				best = slot
				bestLoad = load[slot]
			}
		}
	}
	return best
}
