package hotbench

import (
	"runtime"
	"time"

	"github.com/driftlab/hotbench/internal/clock"
	"github.com/driftlab/hotbench/internal/logging"
)

// Engine keeps every device at the target queue depth. Each completed
// read re-arms exactly one replacement on the same device, so the
// depth holds steady without any per-iteration refill pass. All
// methods run on the benchmark goroutine.
type Engine struct {
	pool  *TaskPool
	depth int
	clk   clock.Clock
	obs   Observer
	log   *logging.Logger

	// err is the first fatal error raised inside a completion
	// callback, where there is no caller to return it to. The loop
	// collects it after each poll.
	err error
}

// NewEngine creates an engine submitting through pool at the given
// per-device depth. The pool must not be shared with another engine:
// tasks cache their completion callback the first time this engine
// uses them.
func NewEngine(pool *TaskPool, depth int, clk clock.Clock, obs Observer, log *logging.Logger) *Engine {
	if obs == nil {
		obs = NoOpObserver{}
	}
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		pool:  pool,
		depth: depth,
		clk:   clk,
		obs:   obs,
		log:   log.WithComponent("engine"),
	}
}

// SubmitSingleIO issues one read at the device's cursor and advances
// the cursor, wrapping at the end of the namespace.
//
// A synchronous refusal from the queue pair is a local event: the task
// goes back to the pool, the failure is counted, and the device runs
// one unit shallower from here on. Pool exhaustion is different; it
// returns an error and the run must come down.
func (e *Engine) SubmitSingleIO(dev *Device) error {
	task, err := e.pool.Acquire()
	if err != nil {
		return WrapError("submit", dev.Name, ErrCodePoolExhausted, err)
	}

	if task.complete == nil {
		t := task
		task.complete = func(cerr error) { e.taskComplete(t, cerr) }
	}

	task.Dev = dev
	task.submitTick = e.clk.Ticks()

	offset := dev.OffsetInIOs
	dev.OffsetInIOs++
	if dev.OffsetInIOs == dev.SizeInIOs {
		dev.OffsetInIOs = 0
	}

	err = dev.Qpair.Read(dev.NS, task.Buf,
		offset*uint64(dev.IOSizeBlocks), uint64(dev.IOSizeBlocks), task.complete)
	if err != nil {
		e.pool.Release(task)
		dev.SubmitFailures++
		e.obs.ObserveSubmitFailure()
		e.log.Warn("starting I/O failed", "device", dev.Name, "offset", offset, "error", err)
		return nil
	}

	dev.CurrentQueueDepth++
	e.obs.ObserveSubmit(uint32(dev.CurrentQueueDepth))
	return nil
}

// SubmitIO primes a device to the target queue depth.
func (e *Engine) SubmitIO(dev *Device) error {
	for i := 0; i < e.depth; i++ {
		if err := e.SubmitSingleIO(dev); err != nil {
			return err
		}
	}
	return nil
}

// taskComplete is the completion callback for every read: account for
// the result, return the task, and re-arm one replacement unless the
// device is on its way out.
func (e *Engine) taskComplete(task *Task, cerr error) {
	dev := task.Dev

	dev.CurrentQueueDepth--
	dev.IOCompleted++

	latencyNs := ticksToNs(e.clk.Ticks()-task.submitTick, e.clk.Hz())
	nbytes := uint64(dev.IOSizeBlocks) * uint64(dev.NS.SectorSize())
	if cerr != nil {
		e.log.Debug("read failed", "device", dev.Name, "error", cerr)
	}
	e.obs.ObserveRead(nbytes, latencyNs, cerr == nil)

	e.pool.Release(task)

	if !dev.IsDraining && !dev.IsRemoved {
		if err := e.SubmitSingleIO(dev); err != nil && e.err == nil {
			e.err = err
		}
	}
}

// CheckCompletions delivers any ready completions for the device.
// Poll failures are not fatal; a dying device reports through its
// completions, and a healthy one has nothing to report.
func (e *Engine) CheckCompletions(dev *Device) {
	if _, err := dev.Qpair.Poll(0); err != nil {
		e.log.Debug("completion poll failed", "device", dev.Name, "error", err)
	}
}

// DrainIO marks the device draining and busy-polls until every
// outstanding read has landed. Draining devices never re-arm, so the
// depth can only fall.
func (e *Engine) DrainIO(dev *Device) {
	dev.IsDraining = true
	for dev.CurrentQueueDepth > 0 {
		e.CheckCompletions(dev)
		// Yield so transport worker goroutines can finish the reads
		// this spin is waiting on.
		runtime.Gosched()
	}
}

// Err returns the first fatal error raised inside a completion
// callback, or nil.
func (e *Engine) Err() error {
	return e.err
}

// ticksToNs converts a tick delta to nanoseconds without overflowing
// on long intervals.
func ticksToNs(delta, hz uint64) uint64 {
	if hz == 0 {
		return 0
	}
	sec := delta / hz
	rem := delta % hz
	return sec*uint64(time.Second) + rem*uint64(time.Second)/hz
}
