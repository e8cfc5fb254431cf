package hotbench

import "github.com/driftlab/hotbench/internal/constants"

// Re-export constants for public API
const (
	DefaultIOSizeBytes    = constants.DefaultIOSizeBytes
	DefaultQueueDepth     = constants.DefaultQueueDepth
	DefaultPoolCapacity   = constants.DefaultPoolCapacity
	DefaultReportInterval = constants.DefaultReportInterval
	DefaultSectorSize     = constants.DefaultSectorSize
	BufferAlignment       = constants.BufferAlignment
)
