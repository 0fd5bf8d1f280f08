package goAuthBridge

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics system.
type MetricID uint16

const (
	// MetricSignUpSuccess counts accounts created through SignUp.
	MetricSignUpSuccess MetricID = iota
	// MetricSignUpFailure counts SignUp calls rejected by the provider.
	MetricSignUpFailure
	// MetricSignInSuccess counts successful password sign-ins.
	MetricSignInSuccess
	// MetricSignInFailure counts password sign-ins rejected by the provider.
	MetricSignInFailure
	// MetricFederatedSignInStarted counts consent redirects handed to the host.
	MetricFederatedSignInStarted
	// MetricFederatedSignInFailure counts federated sign-in calls that failed.
	MetricFederatedSignInFailure
	// MetricSignOutSuccess counts terminated sessions.
	MetricSignOutSuccess
	// MetricSignOutFailure counts failed sign-outs.
	MetricSignOutFailure
	// MetricProfileLookupFailure counts profile reads that failed in the store.
	MetricProfileLookupFailure
	// MetricProfileFallback counts users built from identity claims only.
	MetricProfileFallback
	// MetricProfileUpsertFailure counts failed best-effort profile upserts.
	MetricProfileUpsertFailure
	// MetricProfileUpdateSuccess counts successful UpdateUserProfile calls.
	MetricProfileUpdateSuccess
	// MetricProfileUpdateFailure counts UpdateUserProfile calls that returned false.
	MetricProfileUpdateFailure
	// MetricAuthEventReceived counts provider-pushed session events seen by subscriptions.
	MetricAuthEventReceived
	// MetricAuthCallbackDelivered counts OnAuthChange callback invocations.
	MetricAuthCallbackDelivered
	// MetricReconcileLatency is the reconcile latency histogram.
	MetricReconcileLatency
	metricIDCount
)

// MetricIDCount is the number of defined metric ids.
const MetricIDCount = int(metricIDCount)

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

// Metrics holds atomic counters and an optional reconcile latency histogram.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] configured by cfg. When Enabled is false
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricReconcileLatency] is
// a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricReconcileLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency is enabled, the histogram.
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
		if id == MetricReconcileLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricReconcileLatency].buckets[i])
		}
		s.Histograms[MetricReconcileLatency] = buckets
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
