// Package day provides a date-only calendar value used by the completion ledger.
package day

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the canonical wire and storage form of a Day.
const Layout = "2006-01-02"

// Day is a calendar date with no time component. The zero value is not a valid day.
type Day struct {
	t time.Time
}

// New returns the day for the given calendar date.
func New(year int, month time.Month, dayOfMonth int) Day {
	return Day{t: time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)}
}

// Of returns the calendar day that instant t falls on in loc.
func Of(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return New(y, m, d)
}

// FromTime interprets the date fields of t as-is, ignoring its clock and location.
// Postgres DATE columns scan into midnight values, which this keeps intact.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return New(y, m, d)
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Day {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

// AddDays moves the day by n calendar days (negative moves back).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
