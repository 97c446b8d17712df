package timeposition

import "time"

const secondsPerDay = 24 * 60 * 60

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarDaysBetween returns the number of calendar-day boundaries between
// from and to, evaluated in to's location. Times on the same civil date are
// 0 days apart regardless of the hour; the result is negative when to is
// on an earlier date than from.
func CalendarDaysBetween(from, to time.Time) int {
	return civilDay(to) - civilDay(from.In(to.Location()))
}

// civilDay numbers the civil date of t. Going through UTC midnight keeps the
// count exact across DST transitions.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return floorDiv(int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()), secondsPerDay)
}
