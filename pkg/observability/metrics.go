// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the dolmetscher gateway.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by endpoint, status class, and model.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_requests_total",
			Help: "Total requests",
		},
		[]string{"endpoint", "status", "model"},
	)

	// RequestDuration records HTTP request duration in seconds by endpoint and model.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dolmetscher_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"endpoint", "model"},
	)

	// StreamingConnections tracks the number of active streaming responses.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dolmetscher_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ResolutionsTotal counts model name resolutions by provider prefix.
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_model_resolutions_total",
			Help: "Model resolutions by provider",
		},
		[]string{"provider", "credentials"},
	)

	// ProviderRequestsTotal counts calls sent to the backend.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records backend latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dolmetscher_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts backend-reported tokens by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// ErrorsTotal counts classified error responses and stream error
	// frames by error label.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_errors_total",
			Help: "Classified errors",
		},
		[]string{"label", "phase"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dolmetscher_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		ResolutionsTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderTokensTotal,
		ErrorsTotal,
		RateLimitRejectedTotal,
	)
}

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
