// Command hotbench drives steady read load against every controller a
// transport can find, surviving hot attach and removal, and prints
// per-device throughput once a second.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/driftlab/hotbench"
	"github.com/driftlab/hotbench/internal/logging"
	"github.com/driftlab/hotbench/nvme"
	"github.com/driftlab/hotbench/nvme/nvmefile"
	"github.com/driftlab/hotbench/nvme/nvmesim"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hotbench", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: hotbench -t <seconds> [options]\n")
		fs.PrintDefaults()
	}

	var (
		seconds   = fs.Int("t", 0, "run time in seconds (required, positive)")
		ioSize    = fs.Int("s", hotbench.DefaultIOSizeBytes, "read size in bytes")
		depth     = fs.Int("q", hotbench.DefaultQueueDepth, "queue depth per device")
		interval  = fs.Int("i", 1, "report interval in seconds")
		poolCap   = fs.Int("p", hotbench.DefaultPoolCapacity, "I/O task pool capacity")
		dir       = fs.String("dir", ".", "directory to watch for file-backed controllers")
		direct    = fs.Bool("direct", false, "open files with O_DIRECT where supported")
		sim       = fs.Bool("sim", false, "run against built-in simulated controllers")
		logLevel  = fs.String("log-level", "info", "log level (debug, info, warn, error)")
		logFormat = fs.String("log-format", "console", "log format (console, json)")
		verbose   = fs.Bool("v", false, "shorthand for -log-level debug")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *seconds <= 0 {
		fmt.Fprintln(os.Stderr, "hotbench: run time is required and must be positive")
		fs.Usage()
		return 2
	}

	logCfg := logging.DefaultConfig()
	if *verbose {
		*logLevel = "debug"
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hotbench: %v\n", err)
		fs.Usage()
		return 2
	}
	logCfg.Level = level
	logCfg.Format = *logFormat
	logger := logging.NewLogger(logCfg)
	logging.SetDefault(logger)

	cfg := hotbench.DefaultConfig()
	cfg.Duration = time.Duration(*seconds) * time.Second
	cfg.IOSizeBytes = *ioSize
	cfg.QueueDepth = *depth
	cfg.ReportInterval = time.Duration(*interval) * time.Second
	cfg.PoolCapacity = *poolCap
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "hotbench: %v\n", err)
		fs.Usage()
		return 2
	}

	printHostBanner(*sim, *dir)

	var transport nvme.Transport
	if *sim {
		transport = simTransport()
	} else {
		transport, err = nvmefile.NewTransport(*dir, nvmefile.Config{
			Direct: *direct,
			Logger: logger,
		})
		if err != nil {
			logger.Error("transport setup failed", "error", err)
			return 1
		}
	}

	loop, err := hotbench.NewLoop(cfg, transport, nil, os.Stdout)
	if err != nil {
		logger.Error("benchmark setup failed", "error", err)
		return 1
	}

	if err := loop.Run(); err != nil {
		logger.Error("benchmark run failed", "error", err)
		return 1
	}
	return 0
}

// printHostBanner prints the machine the numbers were taken on.
func printHostBanner(sim bool, dir string) {
	cores, err := cpu.Counts(true)
	if err != nil {
		cores = 0
	}
	var total uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
	}

	mode := fmt.Sprintf("files under %s", dir)
	if sim {
		mode = "simulated controllers"
	}
	fmt.Printf("hotbench: %d logical cores, %s memory, driving %s\n",
		cores, humanize.IBytes(total), mode)
}

// simTransport builds the demo bus: two controllers present at start
// and a third that hot-plugs in after a few seconds of polling, so a
// plain -sim run exercises the attach path mid-flight.
func simTransport() nvme.Transport {
	tr := nvmesim.New(
		nvmesim.WithController("SIM-CTRL-ALPHA", "SIM0001", 64<<20, 512),
		nvmesim.WithController("SIM-CTRL-BETA", "SIM0002", 64<<20, 512),
	)
	return &scriptedBus{Transport: tr, plugAt: time.Now().Add(3 * time.Second)}
}

// scriptedBus injects one deterministic hotplug event into a sim
// transport. The script runs inside Probe, on the benchmark goroutine,
// so it needs no synchronization.
type scriptedBus struct {
	*nvmesim.Transport
	plugAt  time.Time
	plugged bool
}

func (b *scriptedBus) Probe(filter nvme.ProbeFilter, attach nvme.AttachFn, remove nvme.RemoveFn) error {
	if !b.plugged && time.Now().After(b.plugAt) {
		b.AddController("SIM-CTRL-GAMMA", "SIM0003", 64<<20, 512)
		b.plugged = true
	}
	return b.Transport.Probe(filter, attach, remove)
}
