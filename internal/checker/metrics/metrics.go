package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	QuotaExceededTotal prometheus.Counter
	CheckScore         prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passcheck_checks_total",
			Help: "Total number of password checks performed",
		}, []string{"mode"}),
		QuotaExceededTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passcheck_quota_exceeded_total",
			Help: "Total number of checks refused because the daily quota was exhausted",
		}),
		CheckScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "passcheck_check_score",
			Help:    "Distribution of password scores",
			Buckets: prometheus.LinearBuckets(0, 20, 6),
		}),
	}
}

func (m *Metrics) IncrementChecks(mode string) {
	m.ChecksTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncrementQuotaExceeded() {
	m.QuotaExceededTotal.Inc()
}

func (m *Metrics) ObserveScore(score int) {
	m.CheckScore.Observe(float64(score))
}
