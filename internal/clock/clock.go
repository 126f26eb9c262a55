package clock

import "time"

// Clock supplies the current time. The registry and scheduler take a
// Clock instead of calling time.Now so tests can control expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns a Clock backed by the system time in UTC.
func New() Clock {
	return systemClock{}
}
