package viewer

import "time"

// Timer is a pending one-shot callback
type Timer interface {
	Stop() bool
}

// Clock schedules one-shot callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DefaultHideDelay is how long visible controls stay up without interaction
const DefaultHideDelay = 3 * time.Second
