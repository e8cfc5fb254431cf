// Package clock provides the tick source the benchmark paces itself
// with. Deadlines, report intervals and latency samples are all
// computed in ticks so tests can substitute a fake and drive time
// deterministically.
package clock

// Clock is a monotonic tick counter.
type Clock interface {
	// Ticks returns the current tick count. Never decreases.
	Ticks() uint64

	// Hz returns the number of ticks per second.
	Hz() uint64
}

// Fake is a hand-driven Clock for tests. Each Ticks call returns the
// current count and then advances it by the configured step, so a loop
// that only ever reads the clock still moves toward its deadline.
type Fake struct {
	now  uint64
	hz   uint64
	step uint64
}

// NewFake returns a Fake ticking at hz, advancing by step on every
// Ticks call. A step of 0 freezes time until Advance is called.
func NewFake(hz, step uint64) *Fake {
	return &Fake{hz: hz, step: step}
}

// Ticks returns the current count and auto-advances by the step.
func (f *Fake) Ticks() uint64 {
	now := f.now
	f.now += f.step
	return now
}

// Hz returns the configured tick rate.
func (f *Fake) Hz() uint64 { return f.hz }

// Advance moves the clock forward by n ticks.
func (f *Fake) Advance(n uint64) { f.now += n }

// Now returns the current count without advancing.
func (f *Fake) Now() uint64 { return f.now }

var _ Clock = (*Fake)(nil)
