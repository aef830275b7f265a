package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real reads the wall clock, truncated to the second precision the store keeps.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
