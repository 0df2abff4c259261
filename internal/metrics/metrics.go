// Package metrics defines the Prometheus collectors exported on /metrics.
//
// All methods are safe on a nil *Metrics, so components can be built
// without instrumentation in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's collectors.
type Metrics struct {
	intents         *prometheus.CounterVec
	llmRetries      prometheus.Counter
	llmErrors       *prometheus.CounterVec
	searchRequests  *prometheus.CounterVec
	messageDuration prometheus.Histogram
	panics          prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		intents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litbot_intents_total",
			Help: "Messages handled by matched intent",
		}, []string{"intent"}),
		llmRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "litbot_llm_retries_total",
			Help: "LLM calls retried after a rate limit",
		}),
		llmErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litbot_llm_errors_total",
			Help: "Failed LLM calls by error kind",
		}, []string{"kind"}),
		searchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litbot_search_requests_total",
			Help: "Search provider calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		messageDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "litbot_message_duration_seconds",
			Help:    "Time to produce a reply",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Name: "litbot_handler_panics_total",
			Help: "Recovered panics while handling a message",
		}),
	}
}

// Intent counts a message routed to intent.
func (m *Metrics) Intent(intent string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(intent).Inc()
}

// LLMRetry counts one rate-limit retry.
func (m *Metrics) LLMRetry() {
	if m == nil {
		return
	}
	m.llmRetries.Inc()
}

// LLMError counts a failed LLM call.
func (m *Metrics) LLMError(kind string) {
	if m == nil {
		return
	}
	m.llmErrors.WithLabelValues(kind).Inc()
}

// Search counts one provider call. outcome is ok, empty or error.
func (m *Metrics) Search(provider, outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(provider, outcome).Inc()
}

// MessageHandled records how long a reply took.
func (m *Metrics) MessageHandled(d time.Duration) {
	if m == nil {
		return
	}
	m.messageDuration.Observe(d.Seconds())
}

// Panic counts a recovered handler panic.
func (m *Metrics) Panic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}
