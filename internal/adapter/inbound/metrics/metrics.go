// Package metrics holds the Prometheus metrics exposed by the
// orchestrator: event ingestion counters, admin fan-out outcome
// counters and duration, and per-worker queue depth.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the orchestrator updates.
type Metrics struct {
	EventsIngestedTotal *prometheus.CounterVec
	AdminFanoutTotal    *prometheus.CounterVec
	AdminFanoutDuration *prometheus.HistogramVec
	WorkerQueueDepth    *prometheus.GaugeVec
	TestTimeoutsTotal   prometheus.Counter
}

// NewMetrics creates and registers every collector with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EventsIngestedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "engine",
				Name:      "events_ingested_total",
				Help:      "Total events dispatched to a worker, by result.",
			},
			[]string{"result"}, // result=dispatched/protocol_error/dispatch_error
		),
		AdminFanoutTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "engine",
				Name:      "admin_fanout_total",
				Help:      "Total admin fan-out operations, by operation and result.",
			},
			[]string{"op", "result"}, // result=ok/error/diverged
		),
		AdminFanoutDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "engine",
				Name:      "admin_fanout_duration_seconds",
				Help:      "Admin fan-out duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		WorkerQueueDepth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "engine",
				Name:      "worker_queue_depth",
				Help:      "Queued work items per worker at last observation.",
			},
			[]string{"worker"},
		),
		TestTimeoutsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "engine",
				Name:      "test_timeouts_total",
				Help:      "Total tester ingest calls that hit the configured timeout.",
			},
		),
	}
}
