// Package clock provides the ports.Clock implementations.
package clock

import (
	"time"

	"qnadonate/src/core/ports"
)

// System reads the wall clock, truncated to milliseconds and in UTC.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// DayTruncating reports the start of the current UTC day of the wrapped clock.
type DayTruncating struct {
	Base ports.Clock
}

func (c DayTruncating) Now() time.Time {
	return StartOfDay(c.Base.Now())
}

// StartOfDay returns midnight UTC of the day t falls on.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

func (c Fixed) Now() time.Time {
	return c.At
}

// New returns the system clock, optionally truncated to day boundaries.
func New(truncateToDay bool) ports.Clock {
	if truncateToDay {
		return DayTruncating{Base: System{}}
	}
	return System{}
}
