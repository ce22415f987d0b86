package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks pipeline stage timings and run outcomes.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	rowsProcessed prometheus.Counter
}

// NewMetrics registers pipeline metrics on the given registerer. Passing nil
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "synthtab",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synthtab",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		rowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "synthtab",
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Input rows processed across all runs.",
		}),
	}
}

func (m *Metrics) observeStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) recordRun(outcome string, rows int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.rowsProcessed.Add(float64(rows))
}
