package backoffice

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by backoffice APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the back-office engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the back-office engine.
	MetricLoginFailure
	// MetricLoginRateLimited is an exported constant or variable used by the back-office engine.
	MetricLoginRateLimited
	// MetricLoginDevFallback is an exported constant or variable used by the back-office engine.
	MetricLoginDevFallback
	// MetricResolveCacheHit is an exported constant or variable used by the back-office engine.
	MetricResolveCacheHit
	// MetricResolveBackend is an exported constant or variable used by the back-office engine.
	MetricResolveBackend
	// MetricResolveDevFallback is an exported constant or variable used by the back-office engine.
	MetricResolveDevFallback
	// MetricResolveMiss is an exported constant or variable used by the back-office engine.
	MetricResolveMiss
	// MetricSessionCreated is an exported constant or variable used by the back-office engine.
	MetricSessionCreated
	// MetricSessionInvalidated is an exported constant or variable used by the back-office engine.
	MetricSessionInvalidated
	// MetricLogout is an exported constant or variable used by the back-office engine.
	MetricLogout
	// MetricAuthorizeDenied is an exported constant or variable used by the back-office engine.
	MetricAuthorizeDenied
	// MetricUploadSuccess is an exported constant or variable used by the back-office engine.
	MetricUploadSuccess
	// MetricUploadFailure is an exported constant or variable used by the back-office engine.
	MetricUploadFailure
	// MetricStaffCreated is an exported constant or variable used by the back-office engine.
	MetricStaffCreated
	// MetricStaffCreateConflict is an exported constant or variable used by the back-office engine.
	MetricStaffCreateConflict
	// MetricStaffRollback is an exported constant or variable used by the back-office engine.
	MetricStaffRollback
	// MetricStaffRollbackFailed is an exported constant or variable used by the back-office engine.
	MetricStaffRollbackFailed
	// MetricContentRead is an exported constant or variable used by the back-office engine.
	MetricContentRead
	// MetricContentWrite is an exported constant or variable used by the back-office engine.
	MetricContentWrite
	// MetricResolveLatency is an exported constant or variable used by the back-office engine.
	MetricResolveLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by backoffice APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by backoffice APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates the metric registry for one engine instance.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the resolve latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. No-op when disabled.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a resolve latency sample.
//
// Observe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricResolveLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms for export.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricResolveLatency].buckets[i])
		}
		s.Histograms[MetricResolveLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
