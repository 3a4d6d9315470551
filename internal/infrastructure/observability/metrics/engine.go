// Package metrics provides Prometheus metrics for the reachability engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for checker cache lookups
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
	CacheSkip  = "skip"
)

// Label values for scan sources
const (
	SourceCache    = "cache"
	SourceComputed = "computed"
)

// Label values for deletion outcomes
const (
	OutcomeDeleted  = "deleted"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// DefaultCheckerLatencyBuckets cover single indexed lookups through to
// unindexed LIKE scans over large meta tables.
var DefaultCheckerLatencyBuckets = []float64{
	0.0005, // 0.5ms
	0.001,  // 1ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.05,   // 50ms
	0.1,    // 100ms
	0.5,    // 500ms
	1.0,    // 1s
	5.0,    // 5s
}

// DefaultScanLatencyBuckets cover cached reads through to multi-minute passes
var DefaultScanLatencyBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300}

// EngineMetrics holds metrics related to classification and deletion.
type EngineMetrics struct {
	// ScanDuration tracks scan latency. Labels: source (cache, computed)
	ScanDuration *prometheus.HistogramVec

	// ItemsClassified counts items that received a full verdict.
	ItemsClassified prometheus.Counter

	// UnresolvedItems counts items whose classification failed during a scan.
	UnresolvedItems prometheus.Counter

	// CheckerDuration tracks per-checker evaluation latency. Labels: checker
	CheckerDuration *prometheus.HistogramVec

	// CheckerCacheResults counts checker cache lookups. Labels: checker, result
	CheckerCacheResults *prometheus.CounterVec

	// Deletions counts delete attempts. Labels: outcome (deleted, failed, rejected)
	Deletions *prometheus.CounterVec

	// CacheFlushes counts group flushes. Labels: group
	CacheFlushes *prometheus.CounterVec
}

// NewEngineMetrics creates engine metrics registered with the default registry.
func NewEngineMetrics() *EngineMetrics {
	return NewEngineMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewEngineMetricsWithRegistry creates engine metrics registered with a custom registry.
// Useful for testing to avoid conflicts with the default registry.
func NewEngineMetricsWithRegistry(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		ScanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orphaned_media",
				Subsystem: "scan",
				Name:      "duration_seconds",
				Help:      "Scan latency in seconds, broken down by result source.",
				Buckets:   DefaultScanLatencyBuckets,
			},
			[]string{"source"},
		),
		ItemsClassified: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "orphaned_media",
				Subsystem: "scan",
				Name:      "items_classified_total",
				Help:      "Total number of items that received a full verdict.",
			},
		),
		UnresolvedItems: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "orphaned_media",
				Subsystem: "scan",
				Name:      "items_unresolved_total",
				Help:      "Total number of items whose classification failed.",
			},
		),
		CheckerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orphaned_media",
				Subsystem: "checker",
				Name:      "duration_seconds",
				Help:      "Reference checker evaluation latency in seconds.",
				Buckets:   DefaultCheckerLatencyBuckets,
			},
			[]string{"checker"},
		),
		CheckerCacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orphaned_media",
				Subsystem: "checker",
				Name:      "cache_lookups_total",
				Help:      "Checker cache lookups, broken down by checker and result.",
			},
			[]string{"checker", "result"},
		),
		Deletions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orphaned_media",
				Subsystem: "deletion",
				Name:      "attempts_total",
				Help:      "Delete attempts, broken down by outcome.",
			},
			[]string{"outcome"},
		),
		CacheFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orphaned_media",
				Subsystem: "cache",
				Name:      "flushes_total",
				Help:      "Cache group flushes, broken down by group.",
			},
			[]string{"group"},
		),
	}
}

// RecordScan records one scan's latency
func (m *EngineMetrics) RecordScan(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordClassified adds to the classified and unresolved item counters
func (m *EngineMetrics) RecordClassified(classified, unresolved int) {
	if m == nil {
		return
	}
	m.ItemsClassified.Add(float64(classified))
	m.UnresolvedItems.Add(float64(unresolved))
}

// RecordChecker records one checker evaluation
func (m *EngineMetrics) RecordChecker(checkerID string, d time.Duration) {
	if m == nil {
		return
	}
	m.CheckerDuration.WithLabelValues(checkerID).Observe(d.Seconds())
}

// RecordCheckerCache records one checker cache lookup result
func (m *EngineMetrics) RecordCheckerCache(checkerID, result string) {
	if m == nil {
		return
	}
	m.CheckerCacheResults.WithLabelValues(checkerID, result).Inc()
}

// RecordDeletion records one delete attempt outcome
func (m *EngineMetrics) RecordDeletion(outcome string) {
	if m == nil {
		return
	}
	m.Deletions.WithLabelValues(outcome).Inc()
}

// RecordFlush records one cache group flush
func (m *EngineMetrics) RecordFlush(group string) {
	if m == nil {
		return
	}
	m.CacheFlushes.WithLabelValues(group).Inc()
}
