//go:build !linux

package clock

import "time"

// System returns the platform monotonic clock, one tick per
// nanosecond.
func System() Clock { return sysClock{} }

var base = time.Now()

type sysClock struct{}

func (sysClock) Ticks() uint64 { return uint64(time.Since(base)) }

func (sysClock) Hz() uint64 { return uint64(time.Second) }

var _ Clock = sysClock{}
