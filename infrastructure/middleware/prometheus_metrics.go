// Package middleware provides cross-cutting concerns for the jury engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-jury/internal/ports"
)

// ConfidenceBuckets cover the [0, 1] range verdict confidences fall in.
var ConfidenceBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 1}

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// Measurements the jury and the LLM middleware emit by name are routed to
// dedicated vectors; anything else lands in the generic operation vectors.
type PrometheusMetrics struct {
	juryEvaluations   *prometheus.CounterVec
	jurorEvaluations  *prometheus.CounterVec
	jurorLatency      *prometheus.HistogramVec
	aggregation       *prometheus.HistogramVec
	verdictConfidence *prometheus.HistogramVec

	llmLatency  *prometheus.HistogramVec
	llmRequests *prometheus.CounterVec
	llmTokens   *prometheus.CounterVec

	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	operationValues  *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics registers the jury metrics with reg. A nil reg uses
// the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		juryEvaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jury_evaluations_total",
				Help: "Evaluation rounds completed by the jury.",
			},
			[]string{"method", "status"},
		),
		jurorEvaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "juror_evaluations_total",
				Help: "Juror evaluations by outcome.",
			},
			[]string{"juror", "status"},
		),
		jurorLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "juror_evaluation_duration_seconds",
				Help:    "Time a juror spent producing its scores.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"juror", "status"},
		),
		aggregation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jury_aggregation_duration_seconds",
				Help:    "Time spent aggregating juror evaluations.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"method"},
		),
		verdictConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verdict_confidence",
				Help:    "Confidence of final verdicts.",
				Buckets: ConfidenceBuckets,
			},
			[]string{"method"},
		),

		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "LLM request latency.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"provider", "model", "status"},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "LLM requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Tokens consumed by successful LLM requests.",
			},
			[]string{"provider", "model", "token_type"},
		),

		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jury_operation_duration_seconds",
				Help:    "Duration of other jury operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jury_operations_total",
				Help: "Counts of other jury operations.",
			},
			[]string{"operation"},
		),
		operationValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jury_operation_values",
				Help:    "Observed values of other jury measurements.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jury_system_state",
				Help: "Current values of jury state gauges.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	seconds := duration.Seconds()
	switch operation {
	case "aggregation":
		pm.aggregation.WithLabelValues(label(labels, "method")).Observe(seconds)
	case "juror_evaluation":
		pm.jurorLatency.WithLabelValues(label(labels, "juror"), label(labels, "status")).Observe(seconds)
	default:
		pm.operationLatency.WithLabelValues(operation).Observe(seconds)
	}
}

// RecordCounter implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "jury_evaluations_total":
		pm.juryEvaluations.WithLabelValues(label(labels, "method"), label(labels, "status")).Add(value)
	case "juror_evaluations_total":
		pm.jurorEvaluations.WithLabelValues(label(labels, "juror"), label(labels, "status")).Add(value)
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "status"),
		).Add(value)
	case "llm_tokens_total":
		pm.llmTokens.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "token_type"),
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "verdict_confidence":
		pm.verdictConfidence.WithLabelValues(label(labels, "method")).Observe(value)
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "status"),
		).Observe(value)
	default:
		pm.operationValues.WithLabelValues(metric).Observe(value)
	}
}

// label returns labels[key], or "unknown" when it is missing or empty.
func label(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
