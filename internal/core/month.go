// Package core holds the domain model of the tracker: fixed and variable
// items, ledger transactions, generation records, and the month-key
// arithmetic the reconciler depends on.
package core

import (
	"errors"
	"fmt"
	"time"
)

// MonthKey identifies a calendar period as a zero-padded "YYYY-MM" string.
// It is the unit of recurrence granularity: all activation-window checks
// compare whole months, never individual days.
type MonthKey string

var ErrInvalidMonthKey = errors.New("invalid month key, want YYYY-MM")

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	// time.Parse accepts "2024-1"; require the canonical padded form.
	if t.Format("2006-01") != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey(s), nil
}

// MonthOf returns the month key containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

func (m MonthKey) String() string { return string(m) }

func (m MonthKey) Validate() error {
	_, err := ParseMonthKey(string(m))
	return err
}

// Date returns the key's year and month. Invalid keys come back as zeros;
// keys reaching here have been validated at the boundary.
func (m MonthKey) Date() (year int, month time.Month) {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return 0, 0
	}
	return t.Year(), t.Month()
}

// Before and After compare by (year, month) pair. Zero-padded keys also
// order lexicographically, but the parse keeps malformed input from
// comparing as a valid period.
func (m MonthKey) Before(other MonthKey) bool {
	ya, ma := m.Date()
	yb, mb := other.Date()
	return ya < yb || (ya == yb && ma < mb)
}

func (m MonthKey) After(other MonthKey) bool {
	return other.Before(m)
}

// Next returns the following calendar month.
func (m MonthKey) Next() MonthKey {
	y, mo := m.Date()
	return MonthOf(time.Date(y, mo+1, 1, 0, 0, 0, 0, time.UTC))
}

// DueDate resolves a nominal day-of-month inside the key's month. Days past
// the end of the month clamp to the last day of that month rather than
// rolling into the next one (day 31 in February yields Feb 28/29).
func (m MonthKey) DueDate(day int) time.Time {
	y, mo := m.Date()
	last := lastDayOfMonth(y, mo)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, mo, day, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the signed number of whole months from a to b.
// Same month is 0, adjacent months 1, negative when b precedes a.
func MonthsBetween(a, b MonthKey) int {
	ya, ma := a.Date()
	yb, mb := b.Date()
	return (yb-ya)*12 + int(mb) - int(ma)
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
