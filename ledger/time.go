package ledger

import "time"

// =============================================================================
// CALENDAR DATES - Day granularity, UTC
// =============================================================================

// DateLayout is the wire format for dates.
const DateLayout = "2006-01-02"

// NewDate returns midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf truncates t to the calendar day it falls on, keeping its wall date.
func DayOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// StartOfMonth returns the first day of the month.
func StartOfMonth(year int, month time.Month) time.Time {
	return NewDate(year, month, 1)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
