package dateutil

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ISOLayoutZ is the wire format: second precision with a literal Z suffix
const ISOLayoutZ = "2006-01-02T15:04:05Z"

// DateLayout is the calendar-date key format used for holiday lookups
const DateLayout = "2006-01-02"

// ErrISOFormat is returned by ParseISOZ when the text does not have the wire shape
var ErrISOFormat = errors.New("timestamp must be ISO 8601 with Z suffix")

// isoZPattern accepts optional milliseconds and requires a literal Z
var isoZPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z$`)

// FixedZone returns a zone with a constant offset from UTC in whole hours
func FixedZone(name string, offsetHours int) *time.Location {
	return time.FixedZone(name, offsetHours*60*60)
}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// AtClock returns the same calendar day with the wall clock set to hour:minute:00
func AtClock(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// WithClockOf returns date's calendar day carrying the hour, minute and second of clock.
// Sub-second precision is dropped.
func WithClockOf(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, date.Location())
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// DateKey formats the calendar date of t in its own location
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatISOZ formats t in UTC without sub-second precision.
// Example: 2025-01-15T10:00:00Z
func FormatISOZ(t time.Time) string {
	return t.UTC().Format(ISOLayoutZ)
}

// ParseISOZ parses a UTC timestamp that must match YYYY-MM-DDTHH:MM:SS[.mmm]Z exactly
func ParseISOZ(s string) (time.Time, error) {
	if !isoZPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrISOFormat)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ParseDate parses a YYYY-MM-DD calendar date in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
