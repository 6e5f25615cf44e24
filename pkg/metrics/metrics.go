// Package metrics exposes optional Prometheus instrumentation for the
// allocator and collector. A nil *Registry is always safe to call methods
// on — every recording method short-circuits when its receiver is nil, so
// callers that don't want metrics never pay for them and never need a
// conditional at the call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every metric heapkit records.
type Registry struct {
	allocations    *prometheus.CounterVec
	allocFailures  prometheus.Counter
	bytesAllocated prometheus.Counter
	collections    prometheus.Counter
	collectionTime prometheus.Histogram
	bytesReclaimed prometheus.Counter
	freeBytes      *prometheus.GaugeVec
}

// NewRegistry constructs a Registry and registers every metric with reg.
// Pass prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer to wire into the global /metrics endpoint.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heapkit",
			Name:      "allocations_total",
			Help:      "Allocations attempted, partitioned by size class and outcome.",
		}, []string{"class", "outcome"}),
		allocFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapkit",
			Name:      "allocation_failures_total",
			Help:      "Allocations that exhausted a size class even after a collection, or exceeded every size class's threshold.",
		}),
		bytesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapkit",
			Name:      "bytes_allocated_total",
			Help:      "Payload bytes handed out by successful allocations.",
		}),
		collections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapkit",
			Name:      "collections_total",
			Help:      "Completed garbage collection cycles.",
		}),
		collectionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heapkit",
			Name:      "collection_duration_seconds",
			Help:      "Wall-clock duration of a collection's mark and sweep phases (coalescing not included).",
			Buckets:   prometheus.DefBuckets,
		}),
		bytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapkit",
			Name:      "bytes_reclaimed_total",
			Help:      "Bytes returned to free lists across all collections.",
		}),
		freeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "heapkit",
			Name:      "segment_free_bytes",
			Help:      "Free bytes remaining in each segment, by segment index.",
		}, []string{"segment"}),
	}

	for _, c := range []prometheus.Collector{r.allocations, r.allocFailures, r.bytesAllocated, r.collections, r.collectionTime, r.bytesReclaimed, r.freeBytes} {
		if reg != nil {
			_ = reg.Register(c)
		}
	}
	return r
}

func (r *Registry) ObserveAllocation(class string, ok bool, bytes int) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
		r.allocFailures.Inc()
	} else {
		r.bytesAllocated.Add(float64(bytes))
	}
	r.allocations.WithLabelValues(class, outcome).Inc()
}

func (r *Registry) ObserveCollection(seconds float64, bytesReclaimed int64) {
	if r == nil {
		return
	}
	r.collections.Inc()
	r.collectionTime.Observe(seconds)
	r.bytesReclaimed.Add(float64(bytesReclaimed))
}

func (r *Registry) SetSegmentFreeBytes(segment string, free int32) {
	if r == nil {
		return
	}
	r.freeBytes.WithLabelValues(segment).Set(float64(free))
}
