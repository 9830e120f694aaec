// Package metrics defines Prometheus instrumentation for provider calls and HTTP traffic.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider call metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "knosis",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "knosis",
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	WebSearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "web_search_requests_total",
			Help:      "Total number of web search requests",
		},
		[]string{"status"},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "chat_turns_total",
			Help:      "Total orchestrated chat turns by agent and outcome",
		},
		[]string{"agent", "status"},
	)

	IndexedDocumentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "knosis",
			Name:      "indexed_documents_total",
			Help:      "Total documents upserted into the knowledge index",
		},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider call metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(WebSearchRequestsTotal)
	prometheus.MustRegister(ChatTurnsTotal)
	prometheus.MustRegister(IndexedDocumentsTotal)
	providerMetricsRegistered = true
}
