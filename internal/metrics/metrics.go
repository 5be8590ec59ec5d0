// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector aggregates the pipeline's prometheus metrics: generation
// attempts, per-layer validation errors, fix-rate and compliance-score
// distributions, and run outcomes.
type Collector struct {
	attemptsTotal    prometheus.Counter
	runsTotal        *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	fixRate          prometheus.Histogram
	complianceScore  prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics on reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry, or a
// fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.attemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_attempts_total",
		Help:      "Total generation attempts across all runs",
	})
	c.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_runs_total",
		Help:      "Completed generation runs by outcome",
	}, []string{"outcome"})
	c.validationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_errors_total",
		Help:      "Validation errors by chain layer",
	}, []string{"layer"})
	c.fixRate = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fix_rate",
		Help:      "Fraction of previous-attempt errors fixed per attempt",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
	c.complianceScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compliance_score",
		Help:      "Design-token compliance score per validated schema",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	for _, m := range []prometheus.Collector{
		c.attemptsTotal, c.runsTotal, c.validationErrors, c.fixRate, c.complianceScore,
	} {
		if err := reg.Register(m); err != nil {
			c.logger.Warn("metric registration failed", zap.Error(err))
		}
	}
	return c
}

// CountAttempt records one generation attempt.
func (c *Collector) CountAttempt() { c.attemptsTotal.Inc() }

// CountRun records a completed run by outcome (success, error).
func (c *Collector) CountRun(outcome string) { c.runsTotal.WithLabelValues(outcome).Inc() }

// CountValidationError records one validation error for a chain layer.
func (c *Collector) CountValidationError(layer string) {
	c.validationErrors.WithLabelValues(layer).Inc()
}

// ObserveFixRate records the fix rate of one attempt transition.
func (c *Collector) ObserveFixRate(rate float64) { c.fixRate.Observe(rate) }

// ObserveComplianceScore records a schema's compliance score.
func (c *Collector) ObserveComplianceScore(score int) {
	c.complianceScore.Observe(float64(score))
}
