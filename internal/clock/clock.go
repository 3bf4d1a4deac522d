package clock

import (
	"sync"
	"time"

	"habitsAPI/internal/day"
)

// Clock abstracts time retrieval so "today" is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Real returns the actual current time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Today returns the calendar day of c's current instant in loc.
func Today(c Clock, loc *time.Location) day.Day {
	return day.Of(c.Now(), loc)
}

// Stub returns a fixed time until moved. Safe for concurrent use.
type Stub struct {
	mu  sync.Mutex
	now time.Time
}

func NewStub(t time.Time) *Stub {
	return &Stub{now: t}
}

// StubAt returns a Stub set to noon UTC of d.
func StubAt(d day.Day) *Stub {
	return NewStub(d.Time().Add(12 * time.Hour))
}

func (c *Stub) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Stub) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// AdvanceDays moves the clock forward by n whole days.
func (c *Stub) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}
