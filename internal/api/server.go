// Package api exposes the HTTP serving layer: single and batched intent
// classification, administrative training control, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"tokenflow-intent/internal/classifier"
	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/intent"
	"tokenflow-intent/internal/training"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const adminKeyHeader = "X-Admin-Key"

// MetricsSink receives inference observability signals. A nil sink is valid.
type MetricsSink interface {
	PredictionsInc()
	PredictionFailuresInc()
	FallbackInc()
	PredictionLatencyObserve(seconds float64)
	PredictionScoreObserve(score float64)
	BatchRequestsInc()
	BatchItemsObserve(n float64)
}

// Config holds the server's runtime parameters.
type Config struct {
	Port         int
	AdminKey     string
	MaxBatchSize int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the classification API.
type Server struct {
	extractor *features.Extractor
	clf       *classifier.Classifier
	trainer   *training.Trainer
	metrics   MetricsSink
	cfg       Config
	server    *http.Server
}

// Prediction is the response body for one classified transaction.
type Prediction struct {
	Intent     intent.Label `json:"intent"`
	Confidence float64      `json:"confidence"`
}

// HealthResponse reports service status and model loading state.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// TrainingAck acknowledges an accepted training request.
type TrainingAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewServer wires the API against the extractor, classifier, and trainer.
func NewServer(extractor *features.Extractor, clf *classifier.Classifier, trainer *training.Trainer, metrics MetricsSink, cfg Config) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	s := &Server{
		extractor: extractor,
		clf:       clf,
		trainer:   trainer,
		metrics:   metrics,
		cfg:       cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/predict/batch", s.handlePredictBatch)
	mux.HandleFunc("/train", s.requireAdmin(s.handleTrain))
	mux.HandleFunc("/train/status", s.requireAdmin(s.handleTrainStatus))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting intent API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var tx features.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	pred, err := s.classify(tx)
	if err != nil {
		log.Error().Err(err).Str("signature", tx.Signature).Msg("prediction failed")
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var txs []features.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(txs) > s.cfg.MaxBatchSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch size exceeds maximum of %d, received %d", s.cfg.MaxBatchSize, len(txs)))
		return
	}

	if s.metrics != nil {
		s.metrics.BatchRequestsInc()
		s.metrics.BatchItemsObserve(float64(len(txs)))
	}

	// Fail-soft: a bad item yields a sentinel, never aborts the batch.
	preds := make([]Prediction, len(txs))
	for i, tx := range txs {
		pred, err := s.classify(tx)
		if err != nil {
			log.Error().Err(err).Str("signature", tx.Signature).Msg("batch prediction failed for item")
			pred = Prediction{Intent: intent.Unknown, Confidence: 0.0}
		}
		preds[i] = pred
	}
	writeJSON(w, http.StatusOK, preds)
}

// classify runs the extract+predict pipeline for one transaction, converting
// any panic from malformed input into an error.
func (s *Server) classify(tx features.Transaction) (pred Prediction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("inference panic: %v", rec)
			if s.metrics != nil {
				s.metrics.PredictionFailuresInc()
			}
		}
	}()

	start := time.Now()
	usingFallback := !s.clf.IsTrained()

	label, confidence := s.clf.Predict(s.extractor.Extract(tx))

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		s.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		s.metrics.PredictionScoreObserve(confidence)
		if usingFallback {
			s.metrics.FallbackInc()
		}
	}
	return Prediction{Intent: label, Confidence: confidence}, nil
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "training is not configured")
		return
	}

	err := s.trainer.Start(context.WithoutCancel(r.Context()))
	if errors.Is(err, training.ErrTrainingInProgress) {
		writeError(w, http.StatusConflict, "training already in progress")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start training")
		return
	}

	writeJSON(w, http.StatusAccepted, TrainingAck{
		Status:  "initiated",
		Message: "training started in background; poll /train/status for progress",
	})
}

func (s *Server) handleTrainStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "training is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.trainer.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Service:     "intent-inference",
		ModelLoaded: s.clf.IsTrained(),
		Version:     Version,
	})
}

// requireAdmin guards administrative endpoints with a shared-key header.
// A server without a configured key refuses rather than serving unauthenticated.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminKey == "" {
			writeError(w, http.StatusInternalServerError, "server misconfigured: admin key not set")
			return
		}
		if r.Header.Get(adminKeyHeader) != s.cfg.AdminKey {
			writeError(w, http.StatusUnauthorized, "unauthorized: invalid or missing admin key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
