package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTimezone is returned when a timezone name cannot be resolved
// against the IANA database.
var ErrUnknownTimezone = errors.New("unknown timezone")

// DayContext captures the calendar values for a single user-local day. All
// due decisions and due-date arithmetic run against a DayContext rather than
// a raw timestamp, so the timezone conversion happens exactly once.
type DayContext struct {
	// Date is the local calendar date, normalized to midnight UTC. Using a
	// fixed-offset normal form keeps day arithmetic exact across DST shifts.
	Date time.Time

	// DayOfWeek is 1-7 with Sunday=1.
	DayOfWeek int

	// WeekParity is the epoch-based global week number modulo 2. It is a
	// deterministic global numbering, not calendar-week-of-year, so client
	// and server evaluate biweekly cards identically.
	WeekParity int

	// DayOfMonth is 1-31.
	DayOfMonth int
}

// NewDayContext converts a moment in time plus an IANA timezone name into
// the calendar values for the user's current day.
func NewDayContext(now time.Time, tz string) (DayContext, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return DayContext{}, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, tz, err)
	}

	local := now.In(loc)
	year, month, day := local.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return DayContext{
		Date:       date,
		DayOfWeek:  int(local.Weekday()) + 1,
		WeekParity: weekParity(date),
		DayOfMonth: day,
	}, nil
}

// LocalDate returns the calendar date of t in the given timezone, normalized
// to midnight UTC. Two timestamps fall on the same user-local day exactly
// when their LocalDate values are equal.
func LocalDate(t time.Time, tz string) (time.Time, error) {
	ctx, err := NewDayContext(t, tz)
	if err != nil {
		return time.Time{}, err
	}
	return ctx.Date, nil
}

// epochDays returns the number of whole days between the Unix epoch and the
// given midnight-UTC date. Dates before the epoch produce negative values.
func epochDays(date time.Time) int64 {
	const secondsPerDay = 24 * 60 * 60
	secs := date.Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return days
}

// weekParity computes floor(epochDays/7) mod 2, normalized to {0, 1}.
func weekParity(date time.Time) int {
	days := epochDays(date)
	week := days / 7
	if days%7 < 0 {
		week--
	}
	parity := week % 2
	if parity < 0 {
		parity += 2
	}
	return int(parity)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonthClamped advances a date by one calendar month, clamping to the last
// valid day of the target month when the source day does not exist there
// (Jan 31 -> Feb 28/29).
func addMonthClamped(date time.Time) time.Time {
	year, month, day := date.Date()

	// Anchor at the first of the target month so Go's date normalization
	// cannot overflow into the month after.
	anchor := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}

	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}
