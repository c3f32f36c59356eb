package namespace

import "time"

// Clock supplies the current time for grant expiry decisions.
//
// It is injected at construction time rather than read from a global so
// tests can advance time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
