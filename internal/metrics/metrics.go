// Package metrics defines the Prometheus collectors for the pipeline,
// the model router, the cache and the history writers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes
const (
	OutcomeCanned     = "canned"
	OutcomeArithmetic = "arithmetic"
	OutcomeCacheHit   = "cache_hit"
	OutcomeClarify    = "clarify"
	OutcomeModel      = "model"
	OutcomeFailed     = "failed"
	OutcomeTimeout    = "timeout"
	OutcomePanic      = "panic"
)

var (
	// Requests counts processed requests by terminal outcome
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "pipeline",
		Name:      "requests_total",
		Help:      "Processed requests by outcome",
	}, []string{"outcome"})

	// RequestDuration observes end-to-end pipeline latency
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "pipeline",
		Name:      "request_duration_seconds",
		Help:      "Pipeline latency in seconds by outcome",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"outcome"})

	// Escalations counts basic answers re-asked on the advanced tier
	Escalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "pipeline",
		Name:      "escalations_total",
		Help:      "Escalations to the advanced tier by result",
	}, []string{"result"})

	// QualityScore observes the evaluator's overall score
	QualityScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "quality",
		Name:      "overall_score",
		Help:      "Overall answer quality score",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	// TierCalls counts model calls by tier and result
	TierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Model calls by tier and result",
	}, []string{"tier", "result"})

	// TokensUsed counts provider-reported tokens by tier
	TokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens consumed by tier",
	}, []string{"tier"})

	// CacheLookups counts cache searches by match type
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by match type",
	}, []string{"match"})

	// HistoryRecords counts QA records handed to history sinks
	HistoryRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "history",
		Name:      "records_total",
		Help:      "QA records by write result",
	}, []string{"result"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
