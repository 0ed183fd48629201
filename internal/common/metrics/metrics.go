// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// llmBuckets covers provider latencies from 100ms to 2 minutes.
var llmBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	SpecRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgen_requests_total",
			Help: "Total number of specification requests by transport and outcome",
		},
		[]string{"transport", "status"},
	)

	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgen_provider_attempts_total",
			Help: "Provider attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "specgen_provider_latency_seconds",
			Help:    "Latency of provider calls that reached the network",
			Buckets: llmBuckets,
		},
		[]string{"provider"},
	)

	FallbackAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgen_fallback_total",
			Help: "Answers produced by the local fallback, by reason",
		},
		[]string{"reason"},
	)

	SpecExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgen_extractions_total",
			Help: "Specification extraction results",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgen_cache_lookups_total",
			Help: "Provider answer cache lookups",
		},
		[]string{"provider", "result"},
	)

	RequestsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "specgen_requests_active",
			Help: "Requests currently in the pipeline",
		},
		[]string{"transport"},
	)
)
