package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	asksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salessense_asks_total",
			Help: "Total number of question pipeline runs by dialect and outcome.",
		},
		[]string{"dialect", "outcome"},
	)
	llmCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salessense_llm_call_duration_seconds",
			Help:    "Latency of text-generation calls by phase.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"phase"},
	)
	executionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salessense_execution_failures_total",
			Help: "Total number of synthesized queries rejected by an engine.",
		},
		[]string{"dialect"},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salessense_uploads_total",
			Help: "Total number of spreadsheet uploads by format.",
		},
		[]string{"format"},
	)
	catalogReloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "salessense_catalog_reloads_total",
			Help: "Total number of product catalog reloads.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		asksTotal,
		llmCallDurationSeconds,
		executionFailuresTotal,
		uploadsTotal,
		catalogReloadsTotal,
	)
}

func ObserveAsk(dialect, outcome string) {
	asksTotal.WithLabelValues(dialect, outcome).Inc()
}

func ObserveLLMCall(phase string, elapsed time.Duration) {
	llmCallDurationSeconds.WithLabelValues(phase).Observe(elapsed.Seconds())
}

func IncrementExecutionFailure(dialect string) {
	executionFailuresTotal.WithLabelValues(dialect).Inc()
}

func ObserveUpload(format string) {
	uploadsTotal.WithLabelValues(format).Inc()
}

func IncrementCatalogReload() {
	catalogReloadsTotal.Inc()
}
