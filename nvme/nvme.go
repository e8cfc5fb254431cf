// Package nvme defines the transport-neutral contracts between the
// benchmark core and a storage controller transport. A transport owns
// discovery (which controllers exist right now) and the data path
// (queue pairs, reads, completions); the core owns device lifecycle,
// queue-depth maintenance and reporting.
//
// All contract methods are called from a single goroutine. Completion
// callbacks are delivered synchronously from inside QueuePair.Poll on
// that same goroutine; a transport must never invoke a callback from
// anywhere else.
package nvme

// ControllerInfo describes a controller before it is attached. Probe
// filters decide from this whether the controller should be surfaced
// at all.
type ControllerInfo struct {
	// Model is the controller model string, unpadded.
	Model string
	// Serial is the controller serial number, unpadded.
	Serial string
	// Addr is a transport-specific address (a file path, a simulator
	// slot). Diagnostic only.
	Addr string
}

// ProbeFilter reports whether a newly discovered controller should be
// attached. Returning false skips the controller without attaching it.
type ProbeFilter func(info ControllerInfo) bool

// AttachFn is invoked once for each controller that passed the filter
// and is now usable.
type AttachFn func(ctrlr Controller)

// RemoveFn is invoked once when a previously attached controller
// disappears from the bus. The Controller value is the same value that
// was passed to AttachFn.
type RemoveFn func(ctrlr Controller)

// Transport discovers controllers and reports arrivals and departures.
type Transport interface {
	// Probe scans for controller arrivals and departures since the
	// previous call and invokes the callbacks synchronously, attach
	// notifications first. A nil filter accepts everything.
	//
	// A non-nil error means the scan itself failed and discovery can
	// no longer be trusted; callers should stop probing.
	Probe(filter ProbeFilter, attach AttachFn, remove RemoveFn) error
}

// Controller is an attached storage controller.
type Controller interface {
	// Model returns the controller model string.
	Model() string

	// Serial returns the controller serial number.
	Serial() string

	// Namespace returns the controller's data namespace, or nil if it
	// has none.
	Namespace() Namespace

	// AllocQueuePair allocates an I/O queue pair. A controller may
	// refuse (resource exhaustion, controller gone).
	AllocQueuePair() (QueuePair, error)

	// Detach releases the controller. Safe to call more than once and
	// safe to call for controllers that were never given a queue pair.
	Detach() error
}

// Namespace describes the storage behind a controller.
type Namespace interface {
	// Active reports whether the namespace can accept I/O.
	Active() bool

	// Size returns the namespace capacity in bytes.
	Size() uint64

	// SectorSize returns the logical block size in bytes.
	SectorSize() uint32
}

// CompletionFn is invoked exactly once per accepted read, from inside
// QueuePair.Poll, with the I/O outcome.
type CompletionFn func(err error)

// QueuePair is a controller's I/O submission and completion channel.
type QueuePair interface {
	// Read submits an asynchronous read of numBlocks logical blocks
	// starting at startBlock into buf. A nil return means the read was
	// accepted and done will be called exactly once from a future
	// Poll. A non-nil return means the read was never queued and done
	// will not be called.
	Read(ns Namespace, buf []byte, startBlock, numBlocks uint64, done CompletionFn) error

	// Poll delivers ready completions by invoking their callbacks on
	// the caller's goroutine. budget caps the number delivered; a
	// budget <= 0 delivers everything currently ready. Reads submitted
	// by the callbacks themselves are not completed within the same
	// Poll call. Returns the number delivered.
	Poll(budget int) (int, error)

	// Free releases the queue pair. Callers must have drained all
	// outstanding reads first. Safe to call more than once.
	Free() error
}
