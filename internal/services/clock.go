package services

import "time"

// Clock is the single source of "now" for status timestamps and sweep
// cutoffs. Injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall-clock implementation used in production
func SystemClock() Clock { return systemClock{} }
