// Package clock abstracts the time operations the engine depends on so
// that turn deadlines and invite expiry can be driven deterministically
// in tests.
package clock

import "time"

// Clock is the time source injected into sessions and the matchmaker.
// Production code uses Real(); tests use Fake().
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine (real) or synchronously
	// during Advance (fake) once d has elapsed. The returned Timer
	// cancels the pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending one-shot call created by AfterFunc.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call
	// was still pending.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
