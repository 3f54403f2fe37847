package training

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tokenflow-intent/internal/classifier"
)

// ErrTrainingInProgress is returned when a training run is requested while
// another is active. Concurrent runs are rejected, never queued.
var ErrTrainingInProgress = errors.New("training already in progress")

// State is the lifecycle state of the most recent training run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is a point-in-time snapshot of training progress. The trainer
// replaces the whole record on every transition; callers always see a
// consistent snapshot.
type Status struct {
	State    State  `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// MetricsSink receives training observability signals. A nil sink is valid.
type MetricsSink interface {
	TrainingRunsInc()
	TrainingFailuresInc()
	TrainingDurationObserve(seconds float64)
	TrainingSamplesSet(n float64)
	ModelLoadedSet(loaded bool)
}

// Trainer runs model training as a single-flight background task. There is no
// cancellation primitive: once started, a run proceeds to a terminal state
// and only its outcome is observable.
type Trainer struct {
	collector  *Collector
	clf        *classifier.Classifier
	minSamples int
	metrics    MetricsSink

	running atomic.Bool
	status  atomic.Pointer[Status]
}

// NewTrainer creates a trainer gated on minSamples labeled rows.
func NewTrainer(collector *Collector, clf *classifier.Classifier, minSamples int, metrics MetricsSink) *Trainer {
	t := &Trainer{
		collector:  collector,
		clf:        clf,
		minSamples: minSamples,
		metrics:    metrics,
	}
	t.status.Store(&Status{State: StateIdle})
	return t
}

// Start launches a background training run. It returns
// ErrTrainingInProgress when a run is already active.
func (t *Trainer) Start(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrTrainingInProgress
	}
	go t.run(ctx)
	return nil
}

// Status returns the current training status snapshot.
func (t *Trainer) Status() Status {
	return *t.status.Load()
}

func (t *Trainer) run(ctx context.Context) {
	defer t.running.Store(false)
	start := time.Now()

	if t.metrics != nil {
		t.metrics.TrainingRunsInc()
	}

	t.status.Store(&Status{State: StateRunning, Message: "collecting training data"})

	x, y, err := t.collector.Collect(ctx)
	if err != nil {
		t.fail(fmt.Sprintf("training failed: %v", err))
		return
	}

	if len(x) < t.minSamples {
		t.fail(fmt.Sprintf("insufficient data: %d samples (minimum %d)", len(x), t.minSamples))
		return
	}

	t.status.Store(&Status{
		State:    StateRunning,
		Progress: 50,
		Message:  fmt.Sprintf("training model on %d samples", len(x)),
	})

	if err := t.clf.Train(x, y); err != nil {
		t.fail(fmt.Sprintf("training failed: %v", err))
		return
	}
	if err := t.clf.Save(); err != nil {
		// The in-memory model is live; only persistence failed. The next
		// process start falls back to heuristics unless retrained.
		t.fail(fmt.Sprintf("model trained but persistence failed: %v", err))
		return
	}

	if t.metrics != nil {
		t.metrics.TrainingDurationObserve(time.Since(start).Seconds())
		t.metrics.TrainingSamplesSet(float64(len(x)))
		t.metrics.ModelLoadedSet(true)
	}

	t.status.Store(&Status{
		State:    StateCompleted,
		Progress: 100,
		Message:  fmt.Sprintf("model trained successfully on %d samples", len(x)),
	})
	log.Info().Int("samples", len(x)).Dur("elapsed", time.Since(start)).Msg("training run completed")
}

func (t *Trainer) fail(msg string) {
	if t.metrics != nil {
		t.metrics.TrainingFailuresInc()
	}
	t.status.Store(&Status{State: StateFailed, Message: msg})
	log.Error().Str("reason", msg).Msg("training run failed")
}
