//go:build !linux || !uring

package nvmefile

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/driftlab/hotbench/nvme"
)

type readReq struct {
	buf  []byte
	off  int64
	done nvme.CompletionFn
}

type readDone struct {
	done nvme.CompletionFn
	err  error
}

// queuePair serves reads with one worker goroutine doing positioned
// reads. Completions are posted to a channel and handed to the
// benchmark goroutine only when it calls Poll.
type queuePair struct {
	f       *os.File
	submit  chan readReq
	results chan readDone
	freed   atomic.Bool
	wg      sync.WaitGroup
}

func newQueuePair(f *os.File, queueSize int) (nvme.QueuePair, error) {
	q := &queuePair{
		f:       f,
		submit:  make(chan readReq, queueSize),
		results: make(chan readDone, queueSize),
	}
	q.wg.Add(1)
	go q.worker()
	return q, nil
}

func (q *queuePair) worker() {
	defer q.wg.Done()
	for req := range q.submit {
		if q.freed.Load() {
			// Freed mid-queue: fail the read back instead of touching
			// a descriptor on its way closed.
			q.results <- readDone{req.done, ErrQueuePairFreed}
			continue
		}
		n, err := q.f.ReadAt(req.buf, req.off)
		if err == io.EOF && n == len(req.buf) {
			err = nil
		}
		q.results <- readDone{req.done, err}
	}
}

// Read hands the request to the worker without blocking. A full
// submission queue is a synchronous refusal.
func (q *queuePair) Read(ns nvme.Namespace, buf []byte, startBlock, numBlocks uint64, done nvme.CompletionFn) error {
	if q.freed.Load() {
		return ErrQueuePairFreed
	}

	length := numBlocks * uint64(ns.SectorSize())
	if length > uint64(len(buf)) {
		length = uint64(len(buf))
	}

	select {
	case q.submit <- readReq{
		buf:  buf[:length],
		off:  int64(startBlock) * int64(ns.SectorSize()),
		done: done,
	}:
		return nil
	default:
		return ErrSubmitQueueFull
	}
}

// Poll drains ready completions, invoking each callback on the
// calling goroutine.
func (q *queuePair) Poll(budget int) (int, error) {
	n := 0
	for budget <= 0 || n < budget {
		select {
		case d := <-q.results:
			d.done(d.err)
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Free stops the worker and closes the file. Reads still queued are
// failed back through the results channel first, so a caller that
// keeps polling always sees every accepted read complete.
func (q *queuePair) Free() error {
	if q.freed.Swap(true) {
		return nil
	}
	close(q.submit)
	q.wg.Wait()
	return q.f.Close()
}

var _ nvme.QueuePair = (*queuePair)(nil)
