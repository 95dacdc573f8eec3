// Package metrics exposes the Prometheus counters, gauges and
// histograms every protocol server and substrate package reports
// through, per spec.md §4.1-4.5 and §9's metric-collection
// responsibility. Grounded on the exporter shape in
// other_examples/...canonical-redis_exporter (register-once-at-
// construction, plain client_golang collectors) [out-of-pack dep, named
// not grounded — client_golang is the ecosystem-standard metrics
// client; no pack repo ships one].
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric this server exposes, registered against
// a caller-supplied prometheus.Registerer so main can choose the global
// registry or an isolated one for tests.
type Registry struct {
	SchedulerQueueDepth   *prometheus.GaugeVec
	BroadcastBatchLatency prometheus.Histogram
	CompressionRatio      *prometheus.GaugeVec
	SIMDTierInvocations   *prometheus.CounterVec
	TickDuration          prometheus.Histogram
	UDPRetransmits        prometheus.Counter
	ActiveSessions        prometheus.Gauge
	ActiveRooms           prometheus.Gauge
}

// New constructs and registers a Registry.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		SchedulerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "policethief",
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Current queue depth per priority lane.",
		}, []string{"priority"}),

		BroadcastBatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "policethief",
			Subsystem: "fabric",
			Name:      "broadcast_batch_latency_seconds",
			Help:      "Latency of a single broadcast batch dispatch.",
			Buckets:   prometheus.DefBuckets,
		}),

		CompressionRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "policethief",
			Subsystem: "compress",
			Name:      "ratio",
			Help:      "Observed compression ratio per algorithm.",
		}, []string{"algorithm"}),

		SIMDTierInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policethief",
			Subsystem: "simd",
			Name:      "tier_invocations_total",
			Help:      "Bulk-op invocations per selected SIMD tier.",
		}, []string{"op", "tier"}),

		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "policethief",
			Subsystem: "udp",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick.",
			Buckets:   prometheus.LinearBuckets(0.001, 0.002, 10),
		}),

		UDPRetransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "policethief",
			Subsystem: "udp",
			Name:      "retransmits_total",
			Help:      "Total reliable-packet retransmissions.",
		}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "policethief",
			Subsystem: "fabric",
			Name:      "active_sessions",
			Help:      "Currently bound sessions.",
		}),

		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "policethief",
			Subsystem: "fabric",
			Name:      "active_rooms",
			Help:      "Currently live rooms.",
		}),
	}

	reg.MustRegister(
		r.SchedulerQueueDepth,
		r.BroadcastBatchLatency,
		r.CompressionRatio,
		r.SIMDTierInvocations,
		r.TickDuration,
		r.UDPRetransmits,
		r.ActiveSessions,
		r.ActiveRooms,
	)

	return r
}
