// Package metrics mirrors the dispatch loop's owned counters into
// Prometheus gauges/counters for scraping. It never feeds back into
// dispatch decisions — pendingCount inside the manager stays the single
// authoritative value; these are read-only mirrors updated at the same
// mutation points, shaped after internal/concurrent's ConcurrentStatistics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStats holds the Prometheus collectors for one pool's dispatch loop.
type PoolStats struct {
	WorkersIdle     prometheus.Gauge
	PendingDepth    prometheus.Gauge
	TasksDispatched prometheus.Counter
	TasksDropped    prometheus.Counter
	TasksExpired    prometheus.Counter
	WorkersSeen     prometheus.Counter
	WorkersDead     prometheus.Counter
}

// NewPoolStats registers and returns the collectors for pool name, scoped
// under the "workerpool" namespace.
func NewPoolStats(reg prometheus.Registerer, pool string) *PoolStats {
	labels := prometheus.Labels{"pool": pool}
	s := &PoolStats{
		WorkersIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "workerpool",
			Name:        "workers_idle",
			Help:        "Number of workers currently idle and available for dispatch.",
			ConstLabels: labels,
		}),
		PendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "workerpool",
			Name:        "pending_depth",
			Help:        "Number of work items waiting for a worker.",
			ConstLabels: labels,
		}),
		TasksDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "workerpool",
			Name:        "tasks_dispatched_total",
			Help:        "Work items successfully handed off to a worker.",
			ConstLabels: labels,
		}),
		TasksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "workerpool",
			Name:        "tasks_dropped_total",
			Help:        "Fire-and-forget work items lost on shutdown.",
			ConstLabels: labels,
		}),
		TasksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "workerpool",
			Name:        "tasks_expired_total",
			Help:        "Call/SyncEvent entries dropped at match time: deadline passed or client gone.",
			ConstLabels: labels,
		}),
		WorkersSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "workerpool",
			Name:        "workers_seen_total",
			Help:        "new_worker/worker_ready notifications received.",
			ConstLabels: labels,
		}),
		WorkersDead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "workerpool",
			Name:        "workers_dead_total",
			Help:        "worker_dead notifications received.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			s.WorkersIdle, s.PendingDepth, s.TasksDispatched,
			s.TasksDropped, s.TasksExpired, s.WorkersSeen, s.WorkersDead,
		)
	}
	return s
}
