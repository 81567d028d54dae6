package domain

import "time"

// Clock supplies the current time to status derivation and deadline checks.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
