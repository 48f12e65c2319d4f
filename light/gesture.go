package light

import "time"

// Gesture detects the "toggle the power quickly" pattern used to switch
// between static and fade mode. A power-on counts when the previous
// power event lies strictly inside (min, max) before it; any other
// power-on resets the count.
type Gesture struct {
	min      time.Duration
	max      time.Duration
	required int
	count    int
	last     time.Time
}

func NewGesture(min, max time.Duration, required int, start time.Time) *Gesture {
	return &Gesture{min: min, max: max, required: required, last: start}
}

// Observe records a power event at now and reports whether it completed
// the gesture. A suppressed power-on is recorded but not counted; the
// remote sends one right after every brightness change.
func (g *Gesture) Observe(now time.Time, on bool, suppressed bool) bool {
	elapsed := now.Sub(g.last)
	g.last = now
	if !on || suppressed {
		return false
	}
	if elapsed <= g.min || elapsed >= g.max {
		g.count = 0
		return false
	}
	g.count++
	if g.count < g.required {
		return false
	}
	g.count = 0
	return true
}

// Count returns the number of qualifying power-ons seen so far.
func (g *Gesture) Count() int {
	return g.count
}
