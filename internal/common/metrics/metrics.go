// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_generation_requests_total",
			Help: "Total AI generation calls by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_generation_duration_seconds",
			Help:    "Duration of AI provider calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	TokensConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_consumed_total",
			Help: "Tokens consumed by provider and kind",
		},
		[]string{"provider", "kind"},
	)

	ProviderFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_provider_fallbacks_total",
			Help: "Times the fallback provider served a request after the primary failed",
		},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_escalations_total",
			Help: "Responses escalated to a human host by reason",
		},
		[]string{"reason"},
	)

	ContextLoadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "context_load_failures_total",
			Help: "Thread context loads that failed against the database",
		},
	)

	ContextCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "context_cache_hits_total",
			Help: "Thread context loads served from Redis",
		},
	)

	ContextCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "context_cache_misses_total",
			Help: "Thread context loads that fell through to Postgres",
		},
	)
)
