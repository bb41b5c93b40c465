package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Token counters
	TokensPromptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "tokens_prompt_total",
			Help:      "Total prompt tokens consumed",
		},
		[]string{"model"},
	)

	TokensCompletionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "tokens_completion_total",
			Help:      "Total completion tokens generated",
		},
		[]string{"model"},
	)

	// Chat pipeline
	ChatsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "chats_created_total",
			Help:      "Total chats created",
		},
	)

	MessagesPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "messages_persisted_total",
			Help:      "Total persisted chat turns",
		},
		[]string{"role", "status"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "llm_duration_seconds",
			Help:      "LLM inference duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "active_streams",
			Help:      "Currently active streaming connections",
		},
	)

	// Tool usage
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model",
		},
		[]string{"tool", "status"},
	)

	// Auth requests
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "auth_requests_total",
			Help:      "Total authentication requests",
		},
		[]string{"operation", "status"},
	)

	// Sharing
	SharesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "shares_total",
			Help:      "Share link create attempts",
		},
		[]string{"status"},
	)

	PublicShareRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dharz",
			Subsystem: "api",
			Name:      "public_share_requests_total",
			Help:      "Public share fetch requests",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request with its duration
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordTokens records token usage for a completion request
func RecordTokens(model string, promptTokens, completionTokens int) {
	TokensPromptTotal.WithLabelValues(model).Add(float64(promptTokens))
	TokensCompletionTotal.WithLabelValues(model).Add(float64(completionTokens))
}

// RecordLLMDuration records the duration of an LLM inference call
func RecordLLMDuration(model string, durationSec float64) {
	LLMDuration.WithLabelValues(model).Observe(durationSec)
}

// RecordMessagePersisted records one persisted turn outcome
func RecordMessagePersisted(role, status string) {
	MessagesPersistedTotal.WithLabelValues(role, status).Inc()
}

// RecordToolCall records a tool invocation outcome
func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordAuthRequest records an auth operation outcome
func RecordAuthRequest(operation, status string) {
	AuthRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordShare records a share-link create attempt
func RecordShare(status string) {
	if status == "" {
		status = "unknown"
	}
	SharesTotal.WithLabelValues(status).Inc()
}

// RecordPublicShareRequest records a public share fetch
func RecordPublicShareRequest(status string) {
	if status == "" {
		status = "unknown"
	}
	PublicShareRequestsTotal.WithLabelValues(status).Inc()
}
