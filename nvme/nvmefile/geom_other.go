//go:build !linux

package nvmefile

import (
	"fmt"
	"os"
)

func openFile(path string, direct bool) (*os.File, error) {
	// No portable O_DIRECT; buffered reads are the best this platform
	// offers.
	_ = direct
	return os.Open(path)
}

func geometry(path string, fi os.FileInfo, fallbackSector uint32) (uint64, uint32, error) {
	if fi.Mode().IsRegular() {
		return uint64(fi.Size()), fallbackSector, nil
	}
	return 0, 0, fmt.Errorf("nvmefile: block device sizing unsupported on this platform: %s", path)
}

func fileSerial(fi os.FileInfo, path string) string {
	return hashSerial(path)
}
