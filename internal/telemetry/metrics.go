package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minirag/internal/domain"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	queries   *prometheus.CounterVec
	uploads   *prometheus.CounterVec
	chunks    prometheus.Counter
	tokens    *prometheus.CounterVec
	cost      prometheus.Counter
	errors    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "queries_total",
			Help:      "Answered queries by pipeline mode.",
		}, []string{"mode"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "uploads_total",
			Help:      "Indexed uploads by content kind.",
		}, []string{"kind"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the active index.",
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "tokens_total",
			Help:      "Estimated tokens by usage kind.",
		}, []string{"kind"}),
		cost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "estimated_cost_total",
			Help:      "Sum of estimated query costs.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minirag",
			Name:      "errors_total",
			Help:      "Failed requests by error kind.",
		}, []string{"kind"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minirag",
			Name:      "operation_duration_seconds",
			Help:      "Latency of uploads and queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.registry.MustRegister(m.queries, m.uploads, m.chunks, m.tokens, m.cost, m.errors, m.durations)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveUpload(kind string, chunks int, elapsed time.Duration) {
	m.uploads.WithLabelValues(kind).Inc()
	m.chunks.Add(float64(chunks))
	m.durations.WithLabelValues("upload").Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAnswer(mode string, res domain.AnswerResult, elapsed time.Duration) {
	m.queries.WithLabelValues(mode).Inc()
	m.tokens.WithLabelValues("prompt").Add(float64(res.TokenUsage.PromptTokens))
	m.tokens.WithLabelValues("output").Add(float64(res.TokenUsage.OutputTokens))
	m.tokens.WithLabelValues("embedding").Add(float64(res.CostBreakdown.EmbeddingTokens))
	m.cost.Add(res.CostBreakdown.TotalCost)
	m.durations.WithLabelValues("query").Observe(elapsed.Seconds())
}

// ObserveError counts a failed request. kind is input, upstream, state or internal.
func (m *Metrics) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}
