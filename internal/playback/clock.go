package playback

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock provides wall time and countdown timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock is the real-time Clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
