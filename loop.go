package hotbench

import (
	"io"
	"os"
	"time"

	"github.com/driftlab/hotbench/internal/clock"
	"github.com/driftlab/hotbench/internal/logging"
	"github.com/driftlab/hotbench/nvme"
	"github.com/hashicorp/go-multierror"
)

// Loop is one benchmark run: a transport to discover controllers on,
// a registry of live devices, and an engine holding each device at
// the target queue depth until the deadline.
//
// Everything runs on the goroutine that calls Run. Transports may use
// goroutines internally, but every callback lands here.
type Loop struct {
	cfg       Config
	transport nvme.Transport
	clk       clock.Clock
	pool      *TaskPool
	registry  *Registry
	engine    *Engine
	reporter  *Reporter
	metrics   *Metrics
	log       *logging.Logger
}

// NewLoop assembles a benchmark run. The statistics stream goes to
// out; nil means stdout. A nil clk selects the system clock.
func NewLoop(cfg Config, transport nvme.Transport, clk clock.Clock, out io.Writer) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, NewError("config", ErrCodeInvalidConfig, "transport is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	if out == nil {
		out = os.Stdout
	}

	pool, err := NewTaskPool(cfg.PoolCapacity, cfg.IOSizeBytes)
	if err != nil {
		return nil, err
	}

	log := logging.Default()
	metrics := NewMetrics()
	obs := NewMetricsObserver(metrics)

	return &Loop{
		cfg:       cfg,
		transport: transport,
		clk:       clk,
		pool:      pool,
		registry:  NewRegistry(cfg.IOSizeBytes, obs, log),
		engine:    NewEngine(pool, cfg.QueueDepth, clk, obs, log),
		reporter:  NewReporter(out),
		metrics:   metrics,
		log:       log.WithComponent("loop"),
	}, nil
}

// Metrics returns the run's aggregate counters. Valid at any time;
// most useful after Run returns.
func (l *Loop) Metrics() *Metrics {
	return l.metrics
}

// probe runs one discovery pass, folding arrivals and departures into
// the registry.
func (l *Loop) probe() error {
	return l.transport.Probe(
		func(info nvme.ControllerInfo) bool {
			l.log.Debug("probing controller",
				"model", info.Model, "serial", info.Serial, "addr", info.Addr)
			return true
		},
		func(ctrlr nvme.Controller) { l.registry.Register(ctrlr) },
		func(ctrlr nvme.Controller) { l.registry.MarkRemoved(ctrlr) })
}

// Run executes the benchmark until the configured duration elapses or
// a fatal error forces it down. Either way every remaining device is
// drained and unregistered before Run returns, so no read is left in
// flight and no controller stays attached.
func (l *Loop) Run() error {
	l.metrics.StartTime.Store(time.Now().UnixNano())

	fatal := l.run()

	teardown := l.shutdown()

	l.metrics.Stop()
	l.reporter.Summary(l.metrics.Snapshot())

	if fatal != nil {
		if teardown != nil {
			return multierror.Append(fatal, teardown)
		}
		return fatal
	}
	return teardown
}

// run is the body of the benchmark: the initial discovery pass plus
// the polling loop. It returns the fatal error that stopped the run,
// or nil at the deadline.
func (l *Loop) run() error {
	l.reporter.Banner("Initializing storage controllers")
	if err := l.probe(); err != nil {
		l.log.Error("initial controller probe failed", "error", err)
		return WrapError("probe", "", ErrCodeProbeFailed, err)
	}

	l.reporter.Banner("Initialization complete. Starting I/O...")

	start := l.clk.Ticks()
	deadline := start + durationTicks(l.cfg.Duration, l.clk.Hz())
	reportEvery := durationTicks(l.cfg.ReportInterval, l.clk.Hz())
	nextReport := start

	for {
		// Prime devices discovered last pass, then deliver whatever
		// has completed. Completions re-arm their own replacements.
		for _, dev := range l.registry.Devices() {
			if dev.IsNew {
				if err := l.engine.SubmitIO(dev); err != nil {
					return err
				}
				dev.IsNew = false
			}
			l.engine.CheckCompletions(dev)
		}
		if err := l.engine.Err(); err != nil {
			return err
		}

		// Fold hotplug events into the registry.
		if err := l.probe(); err != nil {
			l.log.Error("hotplug probe failed", "error", err)
			return WrapError("probe", "", ErrCodeProbeFailed, err)
		}

		// Removed devices leave once their last read has landed.
		if err := l.registry.Sweep(); err != nil {
			l.log.Warn("device teardown reported errors", "error", err)
		}

		now := l.clk.Ticks()
		if now > deadline {
			return nil
		}

		// Fixed reporting cadence: the next report time advances by
		// the interval, not from "now", so slow iterations do not
		// push the schedule.
		if now > nextReport {
			l.reporter.Report(l.registry.Devices())
			nextReport += reportEvery
		}
	}
}

// shutdown drains every device still in the registry, prints the
// final per-device totals, then unregisters them all.
func (l *Loop) shutdown() error {
	var result *multierror.Error

	devs := make([]*Device, len(l.registry.Devices()))
	copy(devs, l.registry.Devices())

	for _, dev := range devs {
		l.engine.DrainIO(dev)
	}
	if len(devs) > 0 {
		l.reporter.Report(devs)
	}
	for _, dev := range devs {
		if err := l.registry.Unregister(dev); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// durationTicks converts a duration to ticks at hz without overflow
// on long runs.
func durationTicks(d time.Duration, hz uint64) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*hz + rem*hz/uint64(time.Second)
}
