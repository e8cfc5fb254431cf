//go:build linux && uring

package nvmefile

import (
	"os"

	"github.com/iceber/iouring-go"

	"github.com/driftlab/hotbench/nvme"
)

// queuePair serves reads through io_uring instead of a worker
// goroutine. The completion contract is the same: callbacks fire only
// inside Poll, on the calling goroutine.
type queuePair struct {
	f       *os.File
	ring    *iouring.IOURing
	results chan iouring.Result
	freed   bool
}

func newQueuePair(f *os.File, queueSize int) (nvme.QueuePair, error) {
	ring, err := iouring.New(uint(queueSize))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &queuePair{
		f:       f,
		ring:    ring,
		results: make(chan iouring.Result, queueSize),
	}, nil
}

func (q *queuePair) Read(ns nvme.Namespace, buf []byte, startBlock, numBlocks uint64, done nvme.CompletionFn) error {
	if q.freed {
		return ErrQueuePairFreed
	}

	length := numBlocks * uint64(ns.SectorSize())
	if length > uint64(len(buf)) {
		length = uint64(len(buf))
	}
	offset := startBlock * uint64(ns.SectorSize())

	prep := iouring.Pread(int(q.f.Fd()), buf[:length], offset).WithInfo(done)
	if _, err := q.ring.SubmitRequest(prep, q.results); err != nil {
		return err
	}
	return nil
}

func (q *queuePair) Poll(budget int) (int, error) {
	n := 0
	for budget <= 0 || n < budget {
		select {
		case res := <-q.results:
			done := res.GetRequestInfo().(nvme.CompletionFn)
			done(res.Err())
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (q *queuePair) Free() error {
	if q.freed {
		return nil
	}
	q.freed = true
	if err := q.ring.Close(); err != nil {
		q.f.Close()
		return err
	}
	return q.f.Close()
}

var _ nvme.QueuePair = (*queuePair)(nil)
