package constants

import "time"

// Default benchmark configuration
const (
	// DefaultIOSizeBytes is the default size of a single read in bytes
	DefaultIOSizeBytes = 4096

	// DefaultQueueDepth is the per-device target queue depth
	DefaultQueueDepth = 4

	// DefaultPoolCapacity is the default number of preallocated I/O tasks
	DefaultPoolCapacity = 8192

	// DefaultReportInterval is the default statistics reporting period
	DefaultReportInterval = time.Second
)

// Storage geometry
const (
	// DefaultSectorSize is the logical block size assumed when a
	// transport cannot report one
	DefaultSectorSize = 512

	// BufferAlignment is the alignment of every I/O buffer in bytes;
	// direct I/O paths require buffers aligned to the logical block size
	BufferAlignment = 512

	// BufferPatternPeriod is the number of distinct fill bytes cycled
	// across pool slots when buffers are initialized
	BufferPatternPeriod = 8
)

// Transport sizing
const (
	// DefaultSubmitQueueSize is the per-queue-pair submission queue
	// capacity used by file-backed transports
	DefaultSubmitQueueSize = 1024
)
