package trace

import "sync/atomic"

// Clock is a monotonic logical clock for trace ordering.
//
// Every entry is stamped with a strictly increasing seq from one Clock, so
// entries recorded by different engines can be merged without wall-clock
// races. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
