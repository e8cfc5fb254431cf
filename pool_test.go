package hotbench

import (
	"errors"
	"testing"
	"unsafe"
)

func TestNewTaskPoolValidation(t *testing.T) {
	if _, err := NewTaskPool(0, 4096); !IsCode(err, ErrCodeInvalidConfig) {
		t.Errorf("Expected invalid config for zero capacity, got %v", err)
	}
	if _, err := NewTaskPool(8, 0); !IsCode(err, ErrCodeInvalidConfig) {
		t.Errorf("Expected invalid config for zero buffer size, got %v", err)
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	p, err := NewTaskPool(4, 4096)
	if err != nil {
		t.Fatalf("NewTaskPool failed: %v", err)
	}

	if p.Cap() != 4 {
		t.Errorf("Expected capacity 4, got %d", p.Cap())
	}

	var acquired []*Task
	for i := 0; i < 4; i++ {
		task, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		if len(task.Buf) != 4096 {
			t.Errorf("Expected 4096-byte buffer, got %d", len(task.Buf))
		}
		acquired = append(acquired, task)
	}

	if p.Free() != 0 {
		t.Errorf("Expected 0 free tasks, got %d", p.Free())
	}

	// Pool is dry
	if _, err := p.Acquire(); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Expected ErrPoolExhausted, got %v", err)
	}

	// Release one, acquire again
	p.Release(acquired[0])
	if p.Free() != 1 {
		t.Errorf("Expected 1 free task after release, got %d", p.Free())
	}

	task, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	if task != acquired[0] {
		t.Error("Expected LIFO reuse of the released task")
	}
}

func TestPoolReleaseClearsAssociation(t *testing.T) {
	p, err := NewTaskPool(1, 512)
	if err != nil {
		t.Fatalf("NewTaskPool failed: %v", err)
	}

	task, _ := p.Acquire()
	task.Dev = &Device{Name: "x"}
	task.submitTick = 99
	p.Release(task)

	if task.Dev != nil {
		t.Error("Expected Release to clear the device association")
	}
	if task.submitTick != 0 {
		t.Error("Expected Release to clear the submit tick")
	}
}

func TestPoolBufferAlignment(t *testing.T) {
	// 600 is deliberately not a multiple of the alignment; the stride
	// must round up so later slots stay aligned too.
	for _, bufSize := range []int{512, 600, 4096} {
		p, err := NewTaskPool(16, bufSize)
		if err != nil {
			t.Fatalf("NewTaskPool(16, %d) failed: %v", bufSize, err)
		}
		for i := 0; i < 16; i++ {
			task, err := p.Acquire()
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			addr := uintptr(unsafe.Pointer(&task.Buf[0]))
			if addr%BufferAlignment != 0 {
				t.Errorf("bufSize %d slot %d: buffer at %#x not %d-byte aligned", bufSize, i, addr, BufferAlignment)
			}
			if len(task.Buf) != bufSize {
				t.Errorf("bufSize %d slot %d: buffer length %d", bufSize, i, len(task.Buf))
			}
		}
	}
}

func TestPoolPatternFill(t *testing.T) {
	p, err := NewTaskPool(16, 64)
	if err != nil {
		t.Fatalf("NewTaskPool failed: %v", err)
	}

	for i := 0; i < 16; i++ {
		task, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		want := byte(task.slot % 8)
		for j, b := range task.Buf {
			if b != want {
				t.Fatalf("slot %d byte %d: expected %#x, got %#x", task.slot, j, want, b)
			}
		}
	}
}
