package shared

import "time"

// Clock abstracts the current time so services can be tested with a
// deterministic time source. Entities never read the wall clock
// themselves; every mutation that stamps a timestamp takes it as input.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
