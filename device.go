package hotbench

import (
	"fmt"

	"github.com/driftlab/hotbench/nvme"
)

// Device is the benchmark's working record for one attached
// controller: the transport handles plus the counters and lifecycle
// flags the I/O loop drives.
type Device struct {
	// Name is the fixed-width display name, "model (serial)", used on
	// every statistics line.
	Name string

	Ctrlr nvme.Controller
	NS    nvme.Namespace
	Qpair nvme.QueuePair

	// IOSizeBlocks is the length of one read in logical blocks.
	IOSizeBlocks uint32

	// SizeInIOs is how many whole reads fit in the namespace. The
	// sequential cursor wraps at this value.
	SizeInIOs uint64

	// OffsetInIOs is the sequential read cursor in read-sized units.
	// It advances on every submission attempt, including refused ones.
	OffsetInIOs uint64

	// CurrentQueueDepth is the number of reads in flight right now.
	CurrentQueueDepth uint64

	// IOCompleted counts reads completed over the device's lifetime.
	IOCompleted uint64

	// PrevIOCompleted is IOCompleted as of the previous statistics
	// report; the reporter uses it to print per-interval deltas.
	PrevIOCompleted uint64

	// SubmitFailures counts synchronous submission refusals. Each one
	// permanently lowers the device's effective queue depth.
	SubmitFailures uint64

	// IsNew marks a device that has not been primed to full depth yet.
	IsNew bool

	// IsRemoved marks a device whose controller has left the bus.
	IsRemoved bool

	// IsDraining marks a device being wound down; completions stop
	// re-arming replacements.
	IsDraining bool
}

// deviceName renders the fixed-width display name: model and serial,
// each padded or truncated to 20 columns.
func deviceName(ctrlr nvme.Controller) string {
	return fmt.Sprintf("%-20.20s (%-20.20s)", ctrlr.Model(), ctrlr.Serial())
}
