// Package clock abstracts wall time so schedulers and tests can agree on "now".
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the real wall clock.
func System() Clock {
	return systemClock{}
}
