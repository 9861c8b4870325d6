package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the synchronizer's Prometheus metrics.
type Metrics struct {
	// Nodes is the number of registered render nodes.
	Nodes prometheus.Gauge

	// Passes counts full-document re-renders.
	Passes prometheus.Counter

	// NodeFailures counts node construction and wiring failures by code.
	NodeFailures *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Nodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "scenekit",
			Subsystem: "render",
			Name:      "nodes",
			Help:      "Number of live render nodes",
		}),
		Passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "scenekit",
			Subsystem: "render",
			Name:      "passes_total",
			Help:      "Total full-document re-renders",
		}),
		NodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenekit",
			Subsystem: "render",
			Name:      "node_failures_total",
			Help:      "Total render node failures by error code",
		}, []string{"code"}),
	}
}
