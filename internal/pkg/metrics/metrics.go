// Package metrics exposes Prometheus metrics for the webhook pipeline.
// Scrapeable at /metrics; dashboards and alerts rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bulkbot"

var (
	// HTTPRequestTotal counts requests by method, path, and status.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "path"},
	)

	// TokensIssuedTotal counts tokens minted per plan variant.
	TokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of single-use tokens issued.",
		},
		[]string{"plan"},
	)

	// TokensConsumedTotal counts tokens consumed per plan variant.
	TokensConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_consumed_total",
			Help:      "Total number of single-use tokens consumed.",
		},
		[]string{"plan"},
	)

	// TokenRejectionsTotal counts rejected form submissions by reason
	// (not_found, consumed, plan_mismatch, missing).
	TokenRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rejections_total",
			Help:      "Total number of form submissions rejected at token validation.",
		},
		[]string{"reason"},
	)

	// DuplicateSubmissionsTotal counts submissions short-circuited by the
	// dedupe window.
	DuplicateSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_submissions_total",
			Help:      "Total number of duplicate form submissions dropped.",
		},
	)

	// LLMRequestsTotal counts generation API calls by status (ok, rate_limited, error).
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of text-generation API requests.",
		},
		[]string{"status"},
	)

	// LLMRequestDurationSeconds is generation call latency.
	LLMRequestDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Text-generation request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// LLMTokensUsedTotal counts generation tokens by type (prompt, completion).
	LLMTokensUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total number of generation tokens consumed.",
		},
		[]string{"type"},
	)

	// MailSentTotal counts outbound emails by kind (form_link, plan) and status.
	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_sent_total",
			Help:      "Total number of outbound emails by kind and status.",
		},
		[]string{"kind", "status"},
	)

	// PDFRenderDurationSeconds is document render latency.
	PDFRenderDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_render_duration_seconds",
			Help:      "PDF render duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	// MediaCacheHitsTotal counts video-link cache hits.
	MediaCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_cache_hits_total",
			Help:      "Total number of media link cache hits.",
		},
	)
)
