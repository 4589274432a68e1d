// Package metrics defines Prometheus collectors for task store activity.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Store holds the collectors updated by the task store.
type Store struct {
	Mutations       *prometheus.CounterVec
	PersistFailures prometheus.Counter
	DroppedRecords  *prometheus.CounterVec
	Tasks           prometheus.Gauge
}

// NewStore creates the store collectors and registers them with reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewStore(reg prometheus.Registerer) (*Store, error) {
	m := &Store{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskboard",
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Task store mutations by operation",
			},
			[]string{"op"},
		),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Writes to the blob backend that failed",
		}),
		DroppedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskboard",
				Subsystem: "store",
				Name:      "dropped_records_total",
				Help:      "Records rejected by validation, by source (load, import)",
			},
			[]string{"source"},
		),
		Tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskboard",
			Subsystem: "store",
			Name:      "tasks",
			Help:      "Tasks currently held by the store",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Mutations, m.PersistFailures, m.DroppedRecords, m.Tasks} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register store metrics: %w", err)
		}
	}
	return m, nil
}

// Mutation counts one store operation.
func (m *Store) Mutation(op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op).Inc()
}

// PersistFailed counts one failed backend write.
func (m *Store) PersistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// Dropped counts n rejected records from source.
func (m *Store) Dropped(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedRecords.WithLabelValues(source).Add(float64(n))
}

// SetTasks records the current collection size.
func (m *Store) SetTasks(n int) {
	if m == nil {
		return
	}
	m.Tasks.Set(float64(n))
}

// WriteTextfile writes every metric gathered by g to path in the
// Prometheus text format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
