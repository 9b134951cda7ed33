package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

// PipelineMetrics implements ports.PipelineObserver.
type PipelineMetrics struct {
	tierTotal           *prometheus.CounterVec
	tierDuration        *prometheus.HistogramVec
	classificationTotal *prometheus.CounterVec
	duration            prometheus.Histogram
}

func NewPipelineMetrics(registry prometheus.Registerer, service string) *PipelineMetrics {
	labels := prometheus.Labels{"service": service}

	tierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "tier_outcomes_total",
			Help:        "Tier attempts by tier and outcome.",
			ConstLabels: labels,
		},
		[]string{"tier", "outcome"},
	)
	tierDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "tier_duration_seconds",
			Help:        "Tier execution duration in seconds.",
			Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: labels,
		},
		[]string{"tier"},
	)
	classificationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "classifications_total",
			Help:        "Finished classifications by category and deciding tier.",
			ConstLabels: labels,
		},
		[]string{"category", "tier"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "duration_seconds",
			Help:        "End-to-end classification duration in seconds.",
			Buckets:     []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: labels,
		},
	)

	registry.MustRegister(tierTotal, tierDuration, classificationTotal, duration)

	return &PipelineMetrics{
		tierTotal:           tierTotal,
		tierDuration:        tierDuration,
		classificationTotal: classificationTotal,
		duration:            duration,
	}
}

func (m *PipelineMetrics) ObserveTier(tier domain.Tier, outcome domain.TierOutcome, elapsed time.Duration) {
	m.tierTotal.WithLabelValues(string(tier), string(outcome)).Inc()
	if outcome != domain.OutcomeSkipped {
		m.tierDuration.WithLabelValues(string(tier)).Observe(elapsed.Seconds())
	}
}

func (m *PipelineMetrics) ObserveClassification(verdict domain.Verdict, elapsed time.Duration) {
	m.classificationTotal.WithLabelValues(verdict.Category, string(verdict.Tier)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
