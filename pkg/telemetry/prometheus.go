package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports execution metrics to Prometheus.
type PrometheusRecorder struct {
	executionsTotal   *prometheus.CounterVec
	tokensTotal       *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	qualityScore      *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the analysis metric families on the given
// registerer. Pass nil to use the default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_executions_total",
				Help: "Total task executions by task, status, and error code",
			},
			[]string{"task", "status", "error_code"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_tokens_total",
				Help: "Total tokens consumed by provider calls",
			},
			[]string{"task", "provider"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_execution_duration_seconds",
				Help:    "Duration of task executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_cache_lookups_total",
				Help: "Cache lookups by task and outcome",
			},
			[]string{"task", "outcome"},
		),
		qualityScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_quality_score",
				Help:    "Quality gate scores on the 0-100 scale",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"task"},
		),
	}
}

// ObserveExecution records one completed execution.
func (p *PrometheusRecorder) ObserveExecution(task string, success bool, errorCode string, duration time.Duration, quality float64) {
	status := "success"
	if !success {
		status = "error"
	}
	p.executionsTotal.WithLabelValues(task, status, errorCode).Inc()
	p.executionDuration.WithLabelValues(task).Observe(duration.Seconds())
	if success {
		p.qualityScore.WithLabelValues(task).Observe(quality)
	}
}

// ObserveTokens records token usage for one provider call.
func (p *PrometheusRecorder) ObserveTokens(task, provider string, tokens int) {
	p.tokensTotal.WithLabelValues(task, provider).Add(float64(tokens))
}

// ObserveCacheLookup records a cache hit or miss.
func (p *PrometheusRecorder) ObserveCacheLookup(task string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.cacheLookups.WithLabelValues(task, outcome).Inc()
}
