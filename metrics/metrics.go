package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions counts accepted submissions by their initial state
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Feedback submissions by initial moderation state",
		},
		[]string{"state"},
	)

	// ModerationFallbacks counts analysis calls replaced by a neutral default
	ModerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_fallbacks_total",
			Help: "Analysis calls that failed and were replaced by a default value",
		},
		[]string{"analysis"},
	)

	// CacheLookups tracks analysis memo cache hits, misses and faults
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"analysis", "result"},
	)

	// StoreRetries counts persistence attempts that were retried
	StoreRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_store_retries_total",
			Help: "Feedback store writes retried after a failure",
		},
		[]string{"op"},
	)

	// ReviewActions counts moderator decisions
	ReviewActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_actions_total",
			Help: "Moderator review actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// ReviewQueuePending is the size of the review queue at the last sweep
	ReviewQueuePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_queue_pending",
			Help: "Feedback records awaiting moderator review",
		},
	)

	// ProviderLatency tracks calls to the external analysis providers
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_provider_request_seconds",
			Help:    "Latency of external analysis provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "analysis_provider_breaker_state",
			Help: "Circuit breaker state per analysis provider",
		},
		[]string{"provider"},
	)

	// HTTPRequests counts API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)
