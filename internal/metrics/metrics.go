package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ratemybeard"

var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total per-model predictions resolved, labeled by outcome (real or fallback).",
		},
		[]string{"model", "outcome"},
	)

	PredictionLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_latency_seconds",
			Help:      "Latency from job submission to terminal status per model (seconds).",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"model"},
	)

	PollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Total job status polls issued against the inference provider.",
		},
		[]string{"model"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total per-model failures that triggered fallback substitution, labeled by kind.",
		},
		[]string{"model", "kind"},
	)

	EnsembleRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ensemble_runs_total",
			Help:      "Total completed ensemble runs, labeled by result provenance.",
		},
		[]string{"provenance"},
	)

	EnsembleLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ensemble_latency_seconds",
			Help:      "End-to-end ensemble pipeline latency (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		},
	)

	PipelineTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_timeouts_total",
			Help:      "Total ensemble runs aborted on the global deadline.",
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by rate limiting, labeled by scope and operation.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		PredictionsTotal,
		PredictionLatencySeconds,
		PollAttemptsTotal,
		ProviderErrorsTotal,
		EnsembleRunsTotal,
		EnsembleLatencySeconds,
		PipelineTimeoutsTotal,
		RateLimitHitsTotal,
	)
}
