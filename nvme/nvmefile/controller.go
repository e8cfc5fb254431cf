package nvmefile

import (
	"github.com/driftlab/hotbench/nvme"
)

// Controller is one file presented as a storage controller.
type Controller struct {
	path   string
	model  string
	serial string
	cfg    Config
	ns     *Namespace
}

func (c *Controller) Model() string  { return c.model }
func (c *Controller) Serial() string { return c.serial }

// Path returns the file backing the controller.
func (c *Controller) Path() string { return c.path }

func (c *Controller) Namespace() nvme.Namespace {
	if c.ns == nil {
		return nil
	}
	return c.ns
}

// AllocQueuePair opens the backing file and starts its submission
// worker. Each queue pair owns its own file descriptor.
func (c *Controller) AllocQueuePair() (nvme.QueuePair, error) {
	f, err := openFile(c.path, c.cfg.Direct)
	if err != nil {
		return nil, err
	}
	return newQueuePair(f, c.cfg.QueueSize)
}

// Detach releases the controller. A file needs no bus-level release;
// open queue pairs hold their own descriptors until freed.
func (c *Controller) Detach() error { return nil }

// Namespace is the addressable extent of the backing file.
type Namespace struct {
	size   uint64
	sector uint32
}

func (n *Namespace) Active() bool       { return true }
func (n *Namespace) Size() uint64       { return n.size }
func (n *Namespace) SectorSize() uint32 { return n.sector }

var (
	_ nvme.Controller = (*Controller)(nil)
	_ nvme.Namespace  = (*Namespace)(nil)
)
