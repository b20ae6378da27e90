package dispatch

import "time"

// Clock supplies the current wall-clock time. Returning the zero
// time.Time signals that the clock is unavailable; the queue treats that
// as a per-call failure, never as a fatal condition.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return ClockFunc(time.Now) }
