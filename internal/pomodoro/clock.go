package pomodoro

import "time"

// Clock abstracts the wall clock used to stamp completed sessions.
type Clock interface {
	Now() time.Time
}

// SystemClock reports local time, since history dates are local calendar days.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
