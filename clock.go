package wasmshim

import "time"

// Clock is the time source guests read through the overlay's "clock" global.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock reports host time. It is the default "clock" global.
var SystemClock Clock = systemClock{}

// FixedClock always reports the same instant, which is handy in tests.
type FixedClock time.Time

func (fc FixedClock) Now() time.Time {
	return time.Time(fc)
}
