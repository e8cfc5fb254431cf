package nvmesim

import (
	"errors"

	"github.com/driftlab/hotbench/nvme"
)

// ErrQueuePairFreed is returned by Read after the queue pair has been
// released.
var ErrQueuePairFreed = errors.New("nvmesim: queue pair freed")

// ErrReadOutOfRange is returned by Read for a read past the end of the
// namespace.
var ErrReadOutOfRange = errors.New("nvmesim: read beyond namespace")

type pendingRead struct {
	done       nvme.CompletionFn
	err        error
	startBlock uint64
	readyAt    int
}

// QueuePair queues reads and completes them FIFO inside Poll. A read
// submitted by a completion callback is never completed within the
// same Poll call.
type QueuePair struct {
	ctrlr   *Controller
	pending []pendingRead
	polls   int
	freed   bool

	starts []uint64 // every accepted startBlock, in submission order
}

// Read accepts a read, fills buf with a pattern derived from the block
// address, and schedules the completion for a future Poll.
func (q *QueuePair) Read(ns nvme.Namespace, buf []byte, startBlock, numBlocks uint64, done nvme.CompletionFn) error {
	if q.freed {
		return ErrQueuePairFreed
	}
	if err := q.ctrlr.submitErr; err != nil {
		q.ctrlr.submitErr = nil
		return err
	}
	if startBlock+numBlocks > ns.Size()/uint64(ns.SectorSize()) {
		return ErrReadOutOfRange
	}

	base := startBlock * uint64(ns.SectorSize())
	for i := range buf {
		buf[i] = byte(base + uint64(i))
	}

	q.starts = append(q.starts, startBlock)
	q.pending = append(q.pending, pendingRead{
		done:       done,
		err:        q.ctrlr.readErr,
		startBlock: startBlock,
		readyAt:    q.polls + q.ctrlr.completionDelay,
	})
	return nil
}

// Poll completes every pending read whose delay has elapsed, oldest
// first, up to budget. A budget <= 0 completes all of them.
func (q *QueuePair) Poll(budget int) (int, error) {
	q.polls++

	var ready []pendingRead
	rest := q.pending[:0]
	for _, p := range q.pending {
		if p.readyAt <= q.polls && (budget <= 0 || len(ready) < budget) {
			ready = append(ready, p)
		} else {
			rest = append(rest, p)
		}
	}
	q.pending = rest

	// Callbacks run after the pending list is settled, so reads they
	// submit land in the next Poll at the earliest.
	for _, p := range ready {
		p.done(p.err)
	}
	return len(ready), nil
}

// Free releases the queue pair. Reads still pending are dropped; the
// benchmark guarantees it drains before freeing.
func (q *QueuePair) Free() error {
	if !q.freed {
		q.freed = true
		q.ctrlr.freedQpairs++
	}
	return nil
}

// Outstanding returns the number of reads accepted but not yet
// completed.
func (q *QueuePair) Outstanding() int { return len(q.pending) }

// SubmittedBlocks returns every accepted read's start block in
// submission order.
func (q *QueuePair) SubmittedBlocks() []uint64 { return q.starts }

var _ nvme.QueuePair = (*QueuePair)(nil)
