package hotbench

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the read latency histogram buckets in
// nanoseconds. Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks run-wide I/O and lifecycle statistics across all
// devices. The per-device numbers on the statistics stream come from
// the Device records; Metrics is the aggregate view the run summary
// is printed from.
type Metrics struct {
	// Submission counters
	Submissions    atomic.Uint64 // Reads accepted by a queue pair
	SubmitFailures atomic.Uint64 // Synchronous submission refusals

	// Completion counters
	ReadOps    atomic.Uint64 // Completions delivered
	ReadBytes  atomic.Uint64 // Bytes of successful reads
	ReadErrors atomic.Uint64 // Completions that reported an error

	// Lifecycle counters
	ControllersAttached atomic.Uint64 // Controllers registered for I/O
	ControllersSkipped  atomic.Uint64 // Controllers rejected at qualification
	ControllersRemoved  atomic.Uint64 // Hot-remove notifications matched to a device
	DevicesUnregistered atomic.Uint64 // Devices torn down after draining

	// Queue statistics
	QueueDepthTotal atomic.Uint64 // Cumulative queue depth samples
	QueueDepthCount atomic.Uint64 // Number of queue depth samples
	MaxQueueDepth   atomic.Uint32 // Maximum observed queue depth

	// Performance tracking
	TotalLatencyNs atomic.Uint64 // Cumulative read latency in nanoseconds
	OpCount        atomic.Uint64 // Reads with recorded latency

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] contains the count of reads with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Run lifecycle
	StartTime atomic.Int64 // Run start timestamp (UnixNano)
	StopTime  atomic.Int64 // Run stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSubmit records an accepted read submission along with the
// submitting device's queue depth after the submit.
func (m *Metrics) RecordSubmit(queueDepth uint32) {
	m.Submissions.Add(1)
	m.QueueDepthTotal.Add(uint64(queueDepth))
	m.QueueDepthCount.Add(1)

	// Update max queue depth atomically
	for {
		current := m.MaxQueueDepth.Load()
		if queueDepth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, queueDepth) {
			break
		}
	}
}

// RecordSubmitFailure records a synchronous submission refusal.
func (m *Metrics) RecordSubmitFailure() {
	m.SubmitFailures.Add(1)
}

// RecordRead records a completed read operation.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordAttach records a controller passing qualification.
func (m *Metrics) RecordAttach() {
	m.ControllersAttached.Add(1)
}

// RecordSkip records a controller rejected at qualification.
func (m *Metrics) RecordSkip() {
	m.ControllersSkipped.Add(1)
}

// RecordRemove records a hot-remove notification matched to a device.
func (m *Metrics) RecordRemove() {
	m.ControllersRemoved.Add(1)
}

// RecordUnregister records a drained device being torn down.
func (m *Metrics) RecordUnregister() {
	m.DevicesUnregistered.Add(1)
}

// recordLatency records read latency and updates the histogram
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	// Update histogram buckets (cumulative)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the run as finished; Snapshot uptime freezes here.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	// Submissions
	Submissions    uint64
	SubmitFailures uint64

	// Completions
	ReadOps    uint64
	ReadBytes  uint64
	ReadErrors uint64

	// Lifecycle
	ControllersAttached uint64
	ControllersSkipped  uint64
	ControllersRemoved  uint64
	DevicesUnregistered uint64

	// Queue statistics
	AvgQueueDepth float64
	MaxQueueDepth uint32

	// Performance
	AvgLatencyNs uint64
	UptimeNs     uint64

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64 // 50th percentile (median)
	LatencyP99Ns  uint64 // 99th percentile
	LatencyP999Ns uint64 // 99.9th percentile

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64

	// Computed statistics
	ReadIOPS      float64 // Completions per second
	ReadBandwidth float64 // Bytes per second
	ErrorRate     float64 // Percentage of failed reads
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Submissions:         m.Submissions.Load(),
		SubmitFailures:      m.SubmitFailures.Load(),
		ReadOps:             m.ReadOps.Load(),
		ReadBytes:           m.ReadBytes.Load(),
		ReadErrors:          m.ReadErrors.Load(),
		ControllersAttached: m.ControllersAttached.Load(),
		ControllersSkipped:  m.ControllersSkipped.Load(),
		ControllersRemoved:  m.ControllersRemoved.Load(),
		DevicesUnregistered: m.DevicesUnregistered.Load(),
		MaxQueueDepth:       m.MaxQueueDepth.Load(),
	}

	// Calculate average queue depth
	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	// Calculate average latency
	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	// Calculate uptime
	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	// Calculate rates (completions and bandwidth per second)
	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.ReadIOPS = float64(snap.ReadOps) / uptimeSeconds
		snap.ReadBandwidth = float64(snap.ReadBytes) / uptimeSeconds
	}

	// Calculate error rate
	if snap.ReadOps > 0 {
		snap.ErrorRate = float64(snap.ReadErrors) / float64(snap.ReadOps) * 100.0
	}

	// Copy histogram bucket counts
	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	// Calculate percentiles from histogram
	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	// Find the bucket containing the target percentile
	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			// Linear interpolation within the bucket
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	// If we get here, the latency exceeds all buckets
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing)
func (m *Metrics) Reset() {
	m.Submissions.Store(0)
	m.SubmitFailures.Store(0)
	m.ReadOps.Store(0)
	m.ReadBytes.Store(0)
	m.ReadErrors.Store(0)
	m.ControllersAttached.Store(0)
	m.ControllersSkipped.Store(0)
	m.ControllersRemoved.Store(0)
	m.DevicesUnregistered.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable statistics collection. The engine and
// registry report through this interface rather than to a concrete
// Metrics so tests can substitute their own recorder.
type Observer interface {
	// ObserveSubmit is called after a read is accepted, with the
	// device's queue depth after the submit.
	ObserveSubmit(queueDepth uint32)

	// ObserveSubmitFailure is called when a queue pair refuses a read
	// synchronously.
	ObserveSubmitFailure()

	// ObserveRead is called for each completed read.
	ObserveRead(bytes uint64, latencyNs uint64, success bool)

	// ObserveAttach is called when a controller passes qualification.
	ObserveAttach()

	// ObserveSkip is called when a controller fails qualification.
	ObserveSkip()

	// ObserveRemove is called when a hot-remove matches a device.
	ObserveRemove()

	// ObserveUnregister is called when a drained device is torn down.
	ObserveUnregister()
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveSubmit(uint32)              {}
func (NoOpObserver) ObserveSubmitFailure()             {}
func (NoOpObserver) ObserveRead(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveAttach()                    {}
func (NoOpObserver) ObserveSkip()                      {}
func (NoOpObserver) ObserveRemove()                    {}
func (NoOpObserver) ObserveUnregister()                {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSubmit(queueDepth uint32) {
	o.metrics.RecordSubmit(queueDepth)
}

func (o *MetricsObserver) ObserveSubmitFailure() {
	o.metrics.RecordSubmitFailure()
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveAttach() {
	o.metrics.RecordAttach()
}

func (o *MetricsObserver) ObserveSkip() {
	o.metrics.RecordSkip()
}

func (o *MetricsObserver) ObserveRemove() {
	o.metrics.RecordRemove()
}

func (o *MetricsObserver) ObserveUnregister() {
	o.metrics.RecordUnregister()
}

// Compile-time interface check
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
