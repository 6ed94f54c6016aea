package queue

import "time"

// Clock supplies the monotonic-enough timestamp the manager uses for
// deadline arithmetic and expiry checks. Injectable so tests can control
// "now" deterministically instead of sleeping real wall-clock time.
//
//go:generate mockgen -source=./clock.go -destination=./clock_mock.go -package=queue
type Clock interface {
	Now() Deadline
}

// systemClock is the production Clock, backed by time.Now().
type systemClock struct{}

func (systemClock) Now() Deadline {
	return Deadline(time.Now().UnixMicro())
}

// NewSystemClock returns the production wall-clock Clock.
func NewSystemClock() Clock {
	return systemClock{}
}
