// Package nvmesim is an in-memory nvme.Transport for tests and demos.
// Controllers are added and removed by the test, hotplug events are
// observed by the next Probe, and reads complete only inside Poll on
// the polling goroutine, so every interleaving is reproducible.
package nvmesim

import (
	"fmt"

	"github.com/driftlab/hotbench/nvme"
)

// Transport is a scriptable in-memory controller bus.
type Transport struct {
	attached []*Controller
	adds     []*Controller
	removes  []*Controller
	probeErr error
}

// Option configures a Transport at construction.
type Option func(*Transport)

// WithController pre-plugs a controller so the first Probe announces
// it.
func WithController(model, serial string, nsSize uint64, sectorSize uint32) Option {
	return func(t *Transport) {
		t.AddController(model, serial, nsSize, sectorSize)
	}
}

// New creates a transport with zero or more pre-plugged controllers.
func New(opts ...Option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddController plugs in a new controller. It is announced by the next
// Probe. The returned controller can be tuned (namespace state, fault
// injection) before that happens.
func (t *Transport) AddController(model, serial string, nsSize uint64, sectorSize uint32) *Controller {
	c := &Controller{
		model:  model,
		serial: serial,
		ns: &Namespace{
			size:   nsSize,
			sector: sectorSize,
			active: true,
		},
		completionDelay: 1,
	}
	t.adds = append(t.adds, c)
	return c
}

// RemoveController unplugs the controller with the given serial. The
// departure is announced by the next Probe. Removing a controller that
// was never announced cancels its pending arrival instead.
func (t *Transport) RemoveController(serial string) {
	for i, c := range t.adds {
		if c.serial == serial {
			t.adds = append(t.adds[:i], t.adds[i+1:]...)
			return
		}
	}
	for i, c := range t.attached {
		if c.serial == serial {
			t.attached = append(t.attached[:i], t.attached[i+1:]...)
			t.removes = append(t.removes, c)
			return
		}
	}
}

// FailProbes makes every subsequent Probe return err without
// delivering any events.
func (t *Transport) FailProbes(err error) {
	t.probeErr = err
}

// Probe announces arrivals since the previous call, then departures.
func (t *Transport) Probe(filter nvme.ProbeFilter, attach nvme.AttachFn, remove nvme.RemoveFn) error {
	if t.probeErr != nil {
		return t.probeErr
	}

	adds := t.adds
	t.adds = nil
	for _, c := range adds {
		if filter != nil && !filter(nvme.ControllerInfo{
			Model:  c.model,
			Serial: c.serial,
			Addr:   "sim:" + c.serial,
		}) {
			continue
		}
		t.attached = append(t.attached, c)
		if attach != nil {
			attach(c)
		}
	}

	removes := t.removes
	t.removes = nil
	for _, c := range removes {
		if remove != nil {
			remove(c)
		}
	}

	return nil
}

// Controller is one simulated controller with a single namespace.
type Controller struct {
	model  string
	serial string
	ns     *Namespace

	detachCount     int
	freedQpairs     int
	qpairs          []*QueuePair
	allocErr        error
	submitErr       error
	readErr         error
	completionDelay int
}

func (c *Controller) Model() string  { return c.model }
func (c *Controller) Serial() string { return c.serial }

// Namespace returns the controller's namespace, or nil after
// DropNamespace.
func (c *Controller) Namespace() nvme.Namespace {
	if c.ns == nil {
		return nil
	}
	return c.ns
}

// AllocQueuePair hands out a queue pair, or the error set by
// FailQueuePairAlloc.
func (c *Controller) AllocQueuePair() (nvme.QueuePair, error) {
	if c.allocErr != nil {
		return nil, c.allocErr
	}
	qp := &QueuePair{ctrlr: c}
	c.qpairs = append(c.qpairs, qp)
	return qp, nil
}

// Detach records the release. Idempotent, like the real thing.
func (c *Controller) Detach() error {
	c.detachCount++
	return nil
}

// DropNamespace makes the controller report no namespace, so
// registration disqualifies it.
func (c *Controller) DropNamespace() { c.ns = nil }

// Deactivate marks the namespace inactive without removing it.
func (c *Controller) Deactivate() { c.ns.active = false }

// FailQueuePairAlloc makes every AllocQueuePair return err.
func (c *Controller) FailQueuePairAlloc(err error) { c.allocErr = err }

// FailNextSubmit makes the next Read on any of the controller's queue
// pairs return err instead of queueing.
func (c *Controller) FailNextSubmit(err error) { c.submitErr = err }

// FailReads makes every subsequently submitted read complete with err.
func (c *Controller) FailReads(err error) { c.readErr = err }

// SetCompletionDelay sets how many Poll calls a read waits before
// completing. The default of 1 completes every read at the next Poll.
func (c *Controller) SetCompletionDelay(polls int) {
	if polls < 1 {
		polls = 1
	}
	c.completionDelay = polls
}

// Detached reports whether Detach has been called at least once.
func (c *Controller) Detached() bool { return c.detachCount > 0 }

// DetachCount returns how many times Detach has been called.
func (c *Controller) DetachCount() int { return c.detachCount }

// FreedQpairs returns how many of the controller's queue pairs have
// been freed.
func (c *Controller) FreedQpairs() int { return c.freedQpairs }

// QueuePairs returns every queue pair ever allocated on the
// controller, for test inspection.
func (c *Controller) QueuePairs() []*QueuePair { return c.qpairs }

// Namespace is the simulated storage behind a controller.
type Namespace struct {
	size   uint64
	sector uint32
	active bool
}

func (n *Namespace) Active() bool       { return n.active }
func (n *Namespace) Size() uint64       { return n.size }
func (n *Namespace) SectorSize() uint32 { return n.sector }

var (
	_ nvme.Transport  = (*Transport)(nil)
	_ nvme.Controller = (*Controller)(nil)
	_ nvme.Namespace  = (*Namespace)(nil)
)

func (c *Controller) String() string {
	return fmt.Sprintf("%s (%s)", c.model, c.serial)
}
