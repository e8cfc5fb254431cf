package hotbench

import (
	"github.com/driftlab/hotbench/internal/logging"
	"github.com/driftlab/hotbench/nvme"
	"github.com/hashicorp/go-multierror"
)

// Registry owns the set of devices under test. Controllers enter
// through Register when the transport announces them, are flagged by
// MarkRemoved when they leave the bus, and exit through Unregister
// once their outstanding I/O has drained.
//
// Registry is not safe for concurrent use; the benchmark runs it from
// a single goroutine.
type Registry struct {
	ioSizeBytes int
	devices     []*Device
	obs         Observer
	log         *logging.Logger
}

// NewRegistry creates a registry for devices read in ioSizeBytes
// units. A nil observer disables lifecycle accounting.
func NewRegistry(ioSizeBytes int, obs Observer, log *logging.Logger) *Registry {
	if obs == nil {
		obs = NoOpObserver{}
	}
	if log == nil {
		log = logging.Default()
	}
	return &Registry{
		ioSizeBytes: ioSizeBytes,
		obs:         obs,
		log:         log.WithComponent("registry"),
	}
}

// Register qualifies an announced controller and inserts it as a
// Device. Controllers that cannot sustain the configured read size
// are skipped: the skip is logged, the controller is released, and
// the benchmark carries on. Returns the new device, or nil if the
// controller was skipped.
func (r *Registry) Register(ctrlr nvme.Controller) *Device {
	name := deviceName(ctrlr)

	ns := ctrlr.Namespace()
	if ns == nil || !ns.Active() {
		r.skip(ctrlr, name, "controller has no active namespace")
		return nil
	}

	nsSize := ns.Size()
	sectorSize := ns.SectorSize()
	if nsSize < uint64(r.ioSizeBytes) || uint64(sectorSize) > uint64(r.ioSizeBytes) {
		r.log.Warn("namespace cannot sustain configured read size",
			"device", name,
			"ns_size", nsSize,
			"sector_size", sectorSize,
			"io_size", r.ioSizeBytes)
		r.skip(ctrlr, name, "")
		return nil
	}

	qpair, err := ctrlr.AllocQueuePair()
	if err != nil {
		r.log.Warn("queue pair allocation failed", "device", name, "error", err)
		r.skip(ctrlr, name, "")
		return nil
	}

	dev := &Device{
		Name:         name,
		Ctrlr:        ctrlr,
		NS:           ns,
		Qpair:        qpair,
		IOSizeBlocks: uint32(r.ioSizeBytes) / sectorSize,
		SizeInIOs:    nsSize / uint64(r.ioSizeBytes),
		IsNew:        true,
	}

	r.devices = append(r.devices, dev)
	r.obs.ObserveAttach()
	r.log.Info("attached to controller", "device", name, "size_in_ios", dev.SizeInIOs)
	return dev
}

// skip releases a controller that failed qualification. Detach
// failures at this point are logged and dropped; there is no device
// to tear down.
func (r *Registry) skip(ctrlr nvme.Controller, name, reason string) {
	if reason != "" {
		r.log.Warn(reason, "device", name)
	}
	if err := ctrlr.Detach(); err != nil {
		r.log.Warn("detach of skipped controller failed", "device", name, "error", err)
	}
	r.obs.ObserveSkip()
}

// MarkRemoved flags the device backed by ctrlr as hot-removed. Its
// in-flight reads keep completing; the sweep tears it down once the
// last one lands. A controller with no matching device (it never
// qualified, or was already swept) is detached on the spot, which is
// safe because Detach is idempotent.
func (r *Registry) MarkRemoved(ctrlr nvme.Controller) {
	for _, dev := range r.devices {
		if dev.Ctrlr == ctrlr {
			dev.IsRemoved = true
			r.obs.ObserveRemove()
			r.log.Info("controller removed", "device", dev.Name,
				"outstanding", dev.CurrentQueueDepth)
			return
		}
	}

	r.log.Debug("remove notification for unregistered controller",
		"model", ctrlr.Model(), "serial", ctrlr.Serial())
	if err := ctrlr.Detach(); err != nil {
		r.log.Warn("detach of unregistered controller failed", "error", err)
	}
}

// Unregister frees the device's queue pair, detaches its controller
// and drops it from the registry. The device must be fully drained.
func (r *Registry) Unregister(dev *Device) error {
	if dev.CurrentQueueDepth != 0 {
		return NewDeviceError("unregister", dev.Name, ErrCodeTeardown,
			"device still has I/O outstanding")
	}

	r.log.Info("unregistering device", "device", dev.Name, "io_completed", dev.IOCompleted)

	var result *multierror.Error
	if err := dev.Qpair.Free(); err != nil {
		result = multierror.Append(result, WrapError("unregister", dev.Name, ErrCodeTeardown, err))
	}
	if err := dev.Ctrlr.Detach(); err != nil {
		result = multierror.Append(result, WrapError("unregister", dev.Name, ErrCodeTeardown, err))
	}

	for i, d := range r.devices {
		if d == dev {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}

	r.obs.ObserveUnregister()
	return result.ErrorOrNil()
}

// Sweep unregisters every removed device that has finished draining.
// Teardown failures are aggregated, not fatal; the devices are gone
// from the registry either way.
func (r *Registry) Sweep() error {
	var result *multierror.Error

	// Unregister mutates the device list, so sweep over a snapshot.
	devs := make([]*Device, len(r.devices))
	copy(devs, r.devices)

	for _, dev := range devs {
		if dev.IsRemoved && dev.CurrentQueueDepth == 0 {
			if err := r.Unregister(dev); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

// Devices returns the registered devices in discovery order. The
// returned slice is the registry's own; callers must not mutate it.
func (r *Registry) Devices() []*Device {
	return r.devices
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}
