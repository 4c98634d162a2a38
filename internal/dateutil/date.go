package dateutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Date is a calendar date with day resolution and no time-of-day or
// timezone. All operations return new values; a Date is never mutated.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for the given year, month and day. Out-of-range
// components are normalized the same way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates a time instant to its calendar date in the instant's
// own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse reads a YYYY-MM-DD string. Parsing is timezone independent: the
// same string yields the same Date on every machine.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// utc pins the date to midnight UTC so day arithmetic is exact.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At combines the date with a wall-clock time in the given location.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// AddDays returns the date n days after d (before, for negative n).
func (d Date) AddDays(n int) Date {
	return FromTime(d.utc().AddDate(0, 0, n))
}

// DiffDays returns the number of whole days from b to a, so that
// b.AddDays(DiffDays(a, b)) == a.
func DiffDays(a, b Date) int {
	return int(a.utc().Sub(b.utc()) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return DiffDays(d, other) < 0
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return DiffDays(d, other) > 0
}

// Weekday returns the day of the week, in Go's numbering (Sunday = 0).
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// DaysInMonth returns the length of the given month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
