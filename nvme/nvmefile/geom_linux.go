//go:build linux

package nvmefile

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// openFile opens path read-only, with O_DIRECT when asked. Filesystems
// that refuse O_DIRECT get a buffered descriptor instead.
func openFile(path string, direct bool) (*os.File, error) {
	if direct {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECT, 0)
		if err == nil {
			return os.NewFile(uintptr(fd), path), nil
		}
	}
	return os.Open(path)
}

// geometry returns the capacity and logical block size for a scan
// candidate. Block devices are asked directly; regular files report
// their byte size and the configured fallback sector.
func geometry(path string, fi os.FileInfo, fallbackSector uint32) (uint64, uint32, error) {
	if fi.Mode().IsRegular() {
		return uint64(fi.Size()), fallbackSector, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	fd := int(f.Fd())
	size, err := unix.IoctlGetInt(fd, unix.BLKGETSIZE64)
	if err != nil {
		return 0, 0, fmt.Errorf("BLKGETSIZE64 %s: %w", path, err)
	}
	sector, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		return 0, 0, fmt.Errorf("BLKSSZGET %s: %w", path, err)
	}
	return uint64(size), uint32(sector), nil
}

// fileSerial derives a stable identifier for the file: its inode
// number in hex.
func fileSerial(fi os.FileInfo, path string) string {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return fmt.Sprintf("%x", st.Ino)
	}
	return hashSerial(path)
}
