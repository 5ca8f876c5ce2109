package interrupt

import "time"

// Timer is a cancellable armed deadline.
type Timer interface {
	// Stop prevents the timer from firing. Reports whether it was stopped
	// before firing.
	Stop() bool
}

// TimeProvider is an interface for getting the current time and arming
// timers. This allows injecting a mock time provider for deterministic
// testing of timeout behavior.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc arms a timer that calls f after the given duration.
	AfterFunc(d time.Duration, f func()) Timer
}

// RealTimeProvider implements TimeProvider using the actual system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// AfterFunc arms a timer using the standard library.
func (RealTimeProvider) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
