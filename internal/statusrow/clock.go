package statusrow

import "time"

// Clock abstracts time so loading holds can be tested deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending call scheduled by a Clock.
type Timer interface {
	Stop() bool
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc calls f on its own goroutine after d.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// HoldFunc computes how long a row keeps loading after a fetch completed,
// given the minimum loading time and the fetch's elapsed time.
type HoldFunc func(minimum, elapsed time.Duration) time.Duration

// FloorHold keeps the spinner until minimum has passed since fetch start.
// Fetches slower than minimum clear loading immediately.
func FloorHold(minimum, elapsed time.Duration) time.Duration {
	return max(0, minimum-elapsed)
}

// AbsoluteHold waits |minimum - elapsed|. Fetches slower than minimum keep
// loading for the overage again.
func AbsoluteHold(minimum, elapsed time.Duration) time.Duration {
	d := minimum - elapsed
	if d < 0 {
		return -d
	}
	return d
}
