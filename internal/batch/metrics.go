package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics счетчики пакетных операций.
type Metrics struct {
	items    *prometheus.CounterVec
	batches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в переданном реестре (nil - prometheus.DefaultRegisterer).
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &Metrics{
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_organizer_batch_items_total",
				Help: "Total number of batch items processed, partitioned by operation, policy and outcome.",
			},
			[]string{"operation", "policy", "outcome"},
		),
		batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_organizer_batches_total",
				Help: "Total number of batch executions, partitioned by operation, policy and outcome.",
			},
			[]string{"operation", "policy", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "story_organizer_batch_duration_seconds",
				Help:    "Duration of batch executions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "policy"},
		),
	}
}

func (m *Metrics) observe(operation string, policy Policy, succeeded, failed int, seconds float64, aborted bool) {
	if m == nil {
		return
	}
	p := policy.String()
	m.items.WithLabelValues(operation, p, "success").Add(float64(succeeded))
	m.items.WithLabelValues(operation, p, "failure").Add(float64(failed))
	outcome := "success"
	switch {
	case aborted:
		outcome = "aborted"
	case failed > 0:
		outcome = "partial"
	}
	m.batches.WithLabelValues(operation, p, outcome).Inc()
	m.duration.WithLabelValues(operation, p).Observe(seconds)
}
