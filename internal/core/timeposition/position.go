// Package timeposition maps timestamps onto a topic's perpetual calendar:
// 7-day weeks, 4-week months, anchored at the topic's creation day.
// It has zero external dependencies.
package timeposition

import (
	"fmt"
	"time"
)

const (
	// DaysPerWeek is the length of a calendar week.
	DaysPerWeek = 7
	// WeeksPerMonth is the length of a calendar month in weeks.
	WeeksPerMonth = 4
)

// Position locates a day within an anchored calendar
// PRINCIPLES:
// - KISS: three integers, no identity of its own
// - Derived: recomputed on demand, never persisted by this package
type Position struct {
	Month int `json:"month" msgpack:"month"`
	Week  int `json:"week" msgpack:"week"`
	Day   int `json:"day" msgpack:"day"`
}

// Validate checks the week and day ranges. Month is unbounded; it is
// zero or negative only for dates before the anchor.
func (p Position) Validate() error {
	if p.Week < 1 || p.Week > WeeksPerMonth {
		return fmt.Errorf("%w: %d", ErrInvalidWeek, p.Week)
	}
	if p.Day < 1 || p.Day > DaysPerWeek {
		return fmt.Errorf("%w: %d", ErrInvalidDay, p.Day)
	}
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("M%d W%d D%d", p.Month, p.Week, p.Day)
}

// FromTime returns the position of date relative to anchor. The anchor's
// own day is {1, 1, 1}. Days are civil dates in the anchor's location:
// date is converted there first, so its own location never moves it to
// another slot.
func FromTime(date, anchor time.Time) Position {
	totalDays := CalendarDaysBetween(anchor, date.In(anchor.Location())) + 1

	day := floorMod(totalDays-1, DaysPerWeek) + 1
	totalWeeks := ceilDiv(totalDays, DaysPerWeek)
	week := floorMod(totalWeeks-1, WeeksPerMonth) + 1
	month := ceilDiv(totalWeeks, WeeksPerMonth)

	return Position{Month: month, Week: week, Day: day}
}

// ToTime is the inverse of FromTime: it returns the start of the day that
// p designates, in the anchor's location.
// ToTime(FromTime(d, a), a) equals StartOfDay(d.In(a.Location())).
func ToTime(p Position, anchor time.Time) time.Time {
	totalWeeks := (p.Month-1)*WeeksPerMonth + (p.Week - 1)
	totalDays := totalWeeks*DaysPerWeek + (p.Day - 1)
	return StartOfDay(anchor).AddDate(0, 0, totalDays)
}

// WeekDates returns the seven dates of the given month and week, day 1
// first, as midnights in the anchor's location.
func WeekDates(month, week int, anchor time.Time) ([DaysPerWeek]time.Time, error) {
	var dates [DaysPerWeek]time.Time
	if err := (Position{Month: month, Week: week, Day: 1}).Validate(); err != nil {
		return dates, err
	}
	for day := 1; day <= DaysPerWeek; day++ {
		dates[day-1] = ToTime(Position{Month: month, Week: week, Day: day}, anchor)
	}
	return dates, nil
}

// Context pairs a position with the anchor it was computed against.
type Context struct {
	Position
	Anchor time.Time `json:"anchor"`
}

// ContextAt computes the calendar context of date for the given anchor.
func ContextAt(date, anchor time.Time) Context {
	return Context{Position: FromTime(date, anchor), Anchor: anchor}
}

// FormatShort renders a date the way calendar headers show it, e.g. "Jan 2".
func FormatShort(t time.Time) string {
	return t.Format("Jan 2")
}

// floorDiv divides rounding toward negative infinity (b > 0).
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilDiv divides rounding toward positive infinity (b > 0).
func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}

// floorMod returns a mod b with the sign of b.
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
