package investment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the accrual engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs     prometheus.Counter
	entries  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the accrual collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "investcore_accrual_runs_total",
			Help: "Number of accrual runs started.",
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "investcore_accrual_entries_total",
			Help: "Accrual outcomes per investment, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "investcore_accrual_run_duration_seconds",
			Help:    "Wall time of a full accrual run.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.entries, m.duration)
	}
	return m
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(result).Inc()
}

func (m *Metrics) runFinished(start time.Time) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
}
