// Package telemetry provides the Prometheus metrics and prefixed
// loggers used across the prediction pipeline.
package telemetry

import (
	"io"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms of the pipeline.
type Metrics struct {
	PredictionsTotal  *prometheus.CounterVec
	PredictionSeconds *prometheus.HistogramVec
	LLMCallsTotal     *prometheus.CounterVec
	SearchCallsTotal  *prometheus.CounterVec
	BetsRecommended   prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// NewMetrics registers the pipeline metrics on a registry; a nil
// registry uses the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_predictions_total",
			Help: "Predictions served, by domain and status.",
		}, []string{"domain", "status"}),
		PredictionSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predictor_prediction_duration_seconds",
			Help:    "End-to-end prediction latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"domain"}),
		LLMCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_llm_calls_total",
			Help: "LLM completions issued, by outcome.",
		}, []string{"status"}),
		SearchCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_search_calls_total",
			Help: "Search queries issued, by outcome.",
		}, []string{"status"}),
		BetsRecommended: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictor_bets_recommended_total",
			Help: "Positive bet recommendations emitted.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_active_sessions",
			Help: "Sessions currently held in the registry.",
		}),
	}
}

// NewLogger builds a prefixed logger writing to stderr.
func NewLogger(prefix string) *log.Logger {
	return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags)
}

// NewDiscardLogger builds a logger that drops everything, for tests.
func NewDiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
