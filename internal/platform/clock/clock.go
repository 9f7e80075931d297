// Package clock provides the time source injected into the review services.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Implementations return times in the
// location used for calendar-day logic.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock and converts it to a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock reporting times in loc. A nil loc means UTC.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

// Now implements Clock.
func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a manually driven clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now implements Clock.
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
