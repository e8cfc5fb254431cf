//go:build integration

package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/driftlab/hotbench"
	"github.com/driftlab/hotbench/nvme/nvmefile"
)

func writeImage(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}

// A full benchmark run over real files, with a file created and
// another deleted while I/O is in flight.
func TestFileBenchmarkWithHotplug(t *testing.T) {
	dir := t.TempDir()
	first := writeImage(t, dir, "disk-a.img", 1<<20)
	writeImage(t, dir, "disk-b.img", 1<<20)
	writeImage(t, dir, "tiny.img", 1024) // under one read, must be skipped

	tr, err := nvmefile.NewTransport(dir, nvmefile.Config{})
	if err != nil {
		t.Fatalf("NewTransport failed: %v", err)
	}

	cfg := hotbench.DefaultConfig()
	cfg.Duration = 2 * time.Second
	cfg.ReportInterval = 500 * time.Millisecond

	var out bytes.Buffer
	loop, err := hotbench.NewLoop(cfg, tr, nil, &out)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	// Hotplug from outside, the way a real bus would: one arrival and
	// one removal mid-run.
	go func() {
		time.Sleep(500 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "disk-c.img"), make([]byte, 1<<20), 0o644)
		time.Sleep(500 * time.Millisecond)
		os.Remove(first)
	}()

	if err := loop.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := loop.Metrics().Snapshot()
	if snap.ReadOps == 0 {
		t.Fatal("Expected completed reads")
	}
	if snap.Submissions != snap.ReadOps {
		t.Errorf("Run drained, yet %d submissions vs %d completions",
			snap.Submissions, snap.ReadOps)
	}
	if snap.ControllersSkipped != 1 {
		t.Errorf("Expected the undersized file skipped once, got %d", snap.ControllersSkipped)
	}
	if snap.ControllersAttached != 3 {
		t.Errorf("Expected 3 attached controllers, got %d", snap.ControllersAttached)
	}
	if snap.DevicesUnregistered != snap.ControllersAttached {
		t.Errorf("Expected every attached device unregistered, attached=%d unregistered=%d",
			snap.ControllersAttached, snap.DevicesUnregistered)
	}
	if snap.ControllersRemoved != 1 {
		t.Errorf("Expected 1 hot-removal, got %d", snap.ControllersRemoved)
	}

	if !strings.Contains(out.String(), "disk-a.img") {
		t.Error("Expected disk-a.img statistics in the output")
	}
	if !strings.Contains(out.String(), "disk-c.img") {
		t.Error("Expected the hot-added disk-c.img in the output")
	}
	if !strings.Contains(out.String(), "Run complete") {
		t.Error("Expected the run summary in the output")
	}
}

// Direct I/O path: same run with O_DIRECT requested. Filesystems that
// refuse it fall back to buffered reads, so the run must still finish.
func TestFileBenchmarkDirect(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "disk.img", 1<<20)

	tr, err := nvmefile.NewTransport(dir, nvmefile.Config{Direct: true})
	if err != nil {
		t.Fatalf("NewTransport failed: %v", err)
	}

	cfg := hotbench.DefaultConfig()
	cfg.Duration = time.Second

	loop, err := hotbench.NewLoop(cfg, tr, nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if err := loop.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if loop.Metrics().Snapshot().ReadOps == 0 {
		t.Error("Expected completed reads on the direct path")
	}
}
