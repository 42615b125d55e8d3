package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies "now" for missing dates and report timestamps.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the time source behind Now. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Now returns the current time of the package clock. Date fields that cannot
// be decoded default to this value.
func Now() time.Time {
	return clock.Now()
}
