// Package metrics provides Prometheus metrics for the intent inference
// service: prediction throughput and latency, fallback usage, batch sizing,
// and training run outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	Predictions         prometheus.Counter   // Total predictions served
	PredictionFailures  prometheus.Counter   // Predictions that returned an error
	FallbackPredictions prometheus.Counter   // Predictions served by the heuristic fallback
	PredictionLatency   prometheus.Histogram // End-to-end single prediction latency
	PredictionScores    prometheus.Histogram // Distribution of returned confidence scores

	BatchRequests prometheus.Counter   // Batch classification requests
	BatchItems    prometheus.Histogram // Items per accepted batch

	ModelLoaded      prometheus.Gauge     // 1 when a trained model is serving
	TrainingRuns     prometheus.Counter   // Training runs started
	TrainingFailures prometheus.Counter   // Training runs that ended in failure
	TrainingDuration prometheus.Histogram // Wall time of completed training runs
	TrainingSamples  prometheus.Gauge     // Sample count of the last successful run
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics against a custom registry, keeping tests
// isolated from the global one.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_predictions_total",
			Help: "Total number of intent predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_prediction_failures_total",
			Help: "Total number of predictions that returned an error",
		}),
		FallbackPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_fallback_predictions_total",
			Help: "Total number of predictions served by the heuristic fallback",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_prediction_latency_seconds",
			Help:    "End-to-end single prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_prediction_scores",
			Help:    "Distribution of returned confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BatchRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_batch_requests_total",
			Help: "Total number of batch classification requests",
		}),
		BatchItems: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_batch_items",
			Help:    "Items per accepted batch request",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "intent_model_loaded",
			Help: "Whether a trained model is currently serving (1) or the heuristic fallback is (0)",
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_training_runs_total",
			Help: "Total number of training runs started",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "intent_training_failures_total",
			Help: "Total number of training runs that ended in failure",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_training_duration_seconds",
			Help:    "Wall time of completed training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TrainingSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "intent_training_samples",
			Help: "Sample count used by the last successful training run",
		}),
	}
}

// The methods below satisfy the narrow metric-sink interfaces the api and
// training packages declare, keeping those packages decoupled from Prometheus.

func (m *Metrics) PredictionsInc()        { m.Predictions.Inc() }
func (m *Metrics) PredictionFailuresInc() { m.PredictionFailures.Inc() }
func (m *Metrics) FallbackInc()           { m.FallbackPredictions.Inc() }

func (m *Metrics) PredictionLatencyObserve(seconds float64) { m.PredictionLatency.Observe(seconds) }
func (m *Metrics) PredictionScoreObserve(score float64)     { m.PredictionScores.Observe(score) }

func (m *Metrics) BatchRequestsInc()           { m.BatchRequests.Inc() }
func (m *Metrics) BatchItemsObserve(n float64) { m.BatchItems.Observe(n) }

func (m *Metrics) TrainingRunsInc()     { m.TrainingRuns.Inc() }
func (m *Metrics) TrainingFailuresInc() { m.TrainingFailures.Inc() }

func (m *Metrics) TrainingDurationObserve(seconds float64) { m.TrainingDuration.Observe(seconds) }
func (m *Metrics) TrainingSamplesSet(n float64)            { m.TrainingSamples.Set(n) }

func (m *Metrics) ModelLoadedSet(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
	} else {
		m.ModelLoaded.Set(0)
	}
}
