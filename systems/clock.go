package systems

import "time"

// Clock is a repeating fixed-period timer driven by frame deltas.
// It fires at most once per Advance call, however long the frame was.
type Clock struct {
	period  time.Duration
	elapsed time.Duration
}

// NewClock creates a clock that fires every period.
func NewClock(period time.Duration) *Clock {
	if period <= 0 {
		panic("systems: clock period must be positive")
	}
	return &Clock{period: period}
}

// Advance adds dt to the accumulated time and reports whether the period
// was reached. Overshoot carries into the next period.
func (c *Clock) Advance(dt time.Duration) bool {
	if dt < 0 {
		dt = 0
	}
	c.elapsed += dt
	if c.elapsed < c.period {
		return false
	}
	c.elapsed %= c.period
	return true
}

// Period returns the tick period.
func (c *Clock) Period() time.Duration {
	return c.period
}
