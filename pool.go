package hotbench

import (
	"unsafe"

	"github.com/driftlab/hotbench/internal/constants"
	"github.com/driftlab/hotbench/nvme"
)

// Task is one in-flight read: a device association plus a reusable
// data buffer suitable for direct I/O.
type Task struct {
	Dev *Device
	Buf []byte

	// complete is the engine's completion callback, built once on
	// first use and reused across re-arms so the submit path does not
	// allocate.
	complete nvme.CompletionFn

	submitTick uint64 // set by the engine when the read is issued
	slot       int
}

// TaskPool is a fixed arena of I/O tasks. Capacity is chosen up front;
// nothing is allocated after construction, so task acquisition on the
// submit path never touches the heap.
type TaskPool struct {
	tasks []Task
	free  []*Task
	slab  []byte
}

// NewTaskPool preallocates capacity tasks, each owning a bufSize-byte
// buffer aligned to BufferAlignment. Buffers are carved from a single
// slab and prefilled with a per-slot pattern byte so stale task reuse
// is recognizable in captures.
func NewTaskPool(capacity, bufSize int) (*TaskPool, error) {
	if capacity <= 0 {
		return nil, NewError("pool", ErrCodeInvalidConfig, "capacity must be positive")
	}
	if bufSize <= 0 {
		return nil, NewError("pool", ErrCodeInvalidConfig, "buffer size must be positive")
	}

	// Round the per-task stride up so every buffer start, not just the
	// first, lands on an alignment boundary.
	stride := (bufSize + BufferAlignment - 1) &^ (BufferAlignment - 1)
	slab := make([]byte, capacity*stride+BufferAlignment)

	off := 0
	if rem := int(uintptr(unsafe.Pointer(&slab[0])) % BufferAlignment); rem != 0 {
		off = BufferAlignment - rem
	}

	p := &TaskPool{
		tasks: make([]Task, capacity),
		free:  make([]*Task, 0, capacity),
		slab:  slab,
	}

	for i := range p.tasks {
		start := off + i*stride
		buf := slab[start : start+bufSize : start+bufSize]
		fill := byte(i % constants.BufferPatternPeriod)
		for j := range buf {
			buf[j] = fill
		}
		p.tasks[i] = Task{Buf: buf, slot: i}
	}

	// LIFO free list, low slots handed out first.
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, &p.tasks[i])
	}

	return p, nil
}

// Acquire returns a free task, or ErrPoolExhausted when every task is
// in flight.
func (p *TaskPool) Acquire() (*Task, error) {
	if len(p.free) == 0 {
		return nil, ErrPoolExhausted
	}
	t := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return t, nil
}

// Release returns a task to the pool. The buffer contents are left
// alone; only the device association is cleared.
func (p *TaskPool) Release(t *Task) {
	t.Dev = nil
	t.submitTick = 0
	p.free = append(p.free, t)
}

// Cap returns the pool's fixed capacity.
func (p *TaskPool) Cap() int { return len(p.tasks) }

// Free returns the number of tasks currently available.
func (p *TaskPool) Free() int { return len(p.free) }
