package hotbench

import "time"

// Config controls a benchmark run.
type Config struct {
	// Duration is the total run time. Required, must be positive.
	Duration time.Duration

	// IOSizeBytes is the size of every read in bytes.
	IOSizeBytes int

	// QueueDepth is the target number of outstanding reads per device.
	QueueDepth int

	// ReportInterval is how often per-device statistics are printed.
	ReportInterval time.Duration

	// PoolCapacity is the number of preallocated I/O tasks shared by
	// all devices. It bounds total outstanding I/O across the run.
	PoolCapacity int
}

// DefaultConfig returns a Config with every field except Duration set
// to its default. Duration has no default; callers must choose one.
func DefaultConfig() Config {
	return Config{
		IOSizeBytes:    DefaultIOSizeBytes,
		QueueDepth:     DefaultQueueDepth,
		ReportInterval: DefaultReportInterval,
		PoolCapacity:   DefaultPoolCapacity,
	}
}

// Validate checks the configuration for a runnable benchmark.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return NewError("config", ErrCodeInvalidConfig, "duration must be positive")
	}
	if c.IOSizeBytes <= 0 {
		return NewError("config", ErrCodeInvalidConfig, "I/O size must be positive")
	}
	if c.QueueDepth <= 0 {
		return NewError("config", ErrCodeInvalidConfig, "queue depth must be positive")
	}
	if c.ReportInterval <= 0 {
		return NewError("config", ErrCodeInvalidConfig, "report interval must be positive")
	}
	if c.PoolCapacity <= 0 {
		return NewError("config", ErrCodeInvalidConfig, "pool capacity must be positive")
	}
	if c.QueueDepth > c.PoolCapacity {
		return NewError("config", ErrCodeInvalidConfig, "queue depth exceeds pool capacity")
	}
	return nil
}
