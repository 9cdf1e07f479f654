package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dropzone"

// series holds the Prometheus series exported at /metrics.
type series struct {
	outcomes      *prometheus.CounterVec
	stabilization *prometheus.HistogramVec
	processing    *prometheus.HistogramVec
	processed     *prometheus.GaugeVec
}

func newSeries(reg prometheus.Registerer) *series {
	c := &series{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "File events handled, by watcher and outcome status.",
		}, []string{"watcher", "status"}),
		stabilization: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stabilization_seconds",
			Help:      "Time spent waiting for a file to stop changing.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"watcher"}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_seconds",
			Help:      "Duration of the processing step, by watcher and outcome status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"watcher", "status"}),
		processed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processed_files",
			Help:      "Files dispatched to the processing step since startup.",
		}, []string{"watcher"}),
	}
	reg.MustRegister(c.outcomes, c.stabilization, c.processing, c.processed)
	return c
}
