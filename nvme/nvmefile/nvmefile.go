// Package nvmefile presents the files in a directory as storage
// controllers. Every regular file or block device in the watch
// directory becomes one controller with one namespace; creating a
// file is a hotplug attach, deleting it is a hot-remove. Reads are
// served by a per-queue-pair submission worker and delivered, like
// every nvme transport, only from inside Poll.
package nvmefile

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"github.com/driftlab/hotbench/internal/constants"
	"github.com/driftlab/hotbench/internal/logging"
	"github.com/driftlab/hotbench/nvme"
)

// Config tunes the file transport.
type Config struct {
	// SectorSize is the logical block size reported for regular
	// files. Block devices report their own. Defaults to
	// constants.DefaultSectorSize.
	SectorSize uint32

	// QueueSize is the per-queue-pair submission queue capacity.
	// Defaults to constants.DefaultSubmitQueueSize.
	QueueSize int

	// Direct requests O_DIRECT opens where the platform supports
	// them, falling back to buffered I/O where it does not.
	Direct bool

	// Logger receives scan diagnostics. Defaults to the process
	// logger.
	Logger *logging.Logger
}

// Transport scans one directory and reports its files as controllers.
type Transport struct {
	dir   string
	cfg   Config
	log   *logging.Logger
	known map[string]*Controller // scan path -> controller; nil if filtered out
}

// NewTransport creates a transport watching dir. The directory must
// exist.
func NewTransport(dir string, cfg Config) (*Transport, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("nvmefile: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("nvmefile: %s is not a directory", dir)
	}

	if cfg.SectorSize == 0 {
		cfg.SectorSize = constants.DefaultSectorSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = constants.DefaultSubmitQueueSize
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Transport{
		dir:   dir,
		cfg:   cfg,
		log:   log.WithComponent("nvmefile"),
		known: make(map[string]*Controller),
	}, nil
}

// Probe rescans the watch directory. New files are announced through
// attach in name order; vanished files through remove in path order.
// A failed directory read is a hard failure: the bus can no longer be
// observed.
func (t *Transport) Probe(filter nvme.ProbeFilter, attach nvme.AttachFn, remove nvme.RemoveFn) error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return fmt.Errorf("nvmefile: scan %s: %w", t.dir, err)
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		path := filepath.Join(t.dir, entry.Name())

		// Stat, not Lstat: symlinked devices count as what they
		// point at. A stat failure here means the file vanished
		// between the scan and now; it will simply not be seen.
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !usableMode(fi.Mode()) {
			continue
		}

		seen[path] = true
		if _, ok := t.known[path]; ok {
			continue
		}

		info := nvme.ControllerInfo{
			Model:  entry.Name(),
			Serial: fileSerial(fi, path),
			Addr:   path,
		}
		if filter != nil && !filter(info) {
			t.known[path] = nil // skipped for good, not re-offered
			continue
		}

		size, sector, err := geometry(path, fi, t.cfg.SectorSize)
		if err != nil {
			t.log.Warn("cannot size candidate, skipping this pass",
				"path", path, "error", err)
			continue
		}

		c := &Controller{
			path:   path,
			model:  info.Model,
			serial: info.Serial,
			cfg:    t.cfg,
			ns:     &Namespace{size: size, sector: sector},
		}
		t.known[path] = c
		t.log.Debug("file appeared", "path", path, "size", size, "sector_size", sector)
		if attach != nil {
			attach(c)
		}
	}

	var gone []string
	for path := range t.known {
		if !seen[path] {
			gone = append(gone, path)
		}
	}
	sort.Strings(gone)
	for _, path := range gone {
		c := t.known[path]
		delete(t.known, path)
		if c == nil {
			continue
		}
		t.log.Debug("file vanished", "path", path)
		if remove != nil {
			remove(c)
		}
	}

	return nil
}

// usableMode reports whether a file can back a controller: regular
// files and block devices, not directories, sockets or char devices.
func usableMode(mode os.FileMode) bool {
	if mode.IsRegular() {
		return true
	}
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0
}

// hashSerial is the identifier of last resort when the platform
// cannot report an inode: a hash of the scan path.
func hashSerial(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("%x", h.Sum64())
}

var _ nvme.Transport = (*Transport)(nil)
