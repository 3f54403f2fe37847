// Package classifier implements the trained intent model: a standard scaler
// and random-forest ensemble fitted together, persisted together, and swapped
// in as one unit. Until a model is trained or loaded, prediction delegates to
// the heuristic rule chain.
package classifier

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/heuristic"
	"tokenflow-intent/internal/intent"
)

var (
	// ErrTooFewClasses is returned when the training labels contain fewer
	// than two distinct classes; a single-class fit would be degenerate.
	ErrTooFewClasses = errors.New("training data contains fewer than 2 classes")

	// ErrNoSamples is returned for an empty training set.
	ErrNoSamples = errors.New("training data is empty")
)

// artifact is one complete trained model: the scaler and ensemble are
// co-dependent and only ever replaced together.
type artifact struct {
	Scaler  *Scaler
	Forest  *Forest
	Classes []intent.Label // index-aligned with ensemble class probabilities
}

// ensembleBlob is the gob form of the ensemble half of the persisted pair.
type ensembleBlob struct {
	Forest  *Forest
	Classes []intent.Label
}

// Classifier is the dual-mode intent classifier. Prediction reads the current
// artifact through an atomic pointer, so inference never blocks behind a
// training run and never observes a half-swapped model. Train, Save, and Load
// serialize on a mutex.
type Classifier struct {
	mu      sync.Mutex
	current atomic.Pointer[artifact]
	store   *ModelStore
	cfg     ForestConfig
}

// New creates an untrained classifier backed by the given model store. The
// store may be nil, in which case Save and Load are unavailable and the
// classifier serves heuristics until trained in-process.
func New(store *ModelStore) *Classifier {
	return &Classifier{
		store: store,
		cfg:   DefaultForestConfig(),
	}
}

// IsTrained reports whether a usable model is currently loaded.
func (c *Classifier) IsTrained() bool {
	return c.current.Load() != nil
}

// Predict classifies one feature vector. Untrained, it applies the heuristic
// rule chain to the raw vector; trained, it scales the vector and returns the
// argmax class with its probability as confidence. Deterministic for a fixed
// model state.
func (c *Classifier) Predict(v features.Vector) (intent.Label, float64) {
	art := c.current.Load()
	if art == nil {
		return heuristic.Fallback(v)
	}

	probs := art.Forest.PredictProba(art.Scaler.Transform(v.Floats()))
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return art.Classes[best], probs[best]
}

// Train fits a fresh (scaler, ensemble) pair on the labeled matrix and swaps
// it in, fully replacing any prior model. At most one Train may run against a
// classifier at a time; callers hold that off via the trainer's single-flight
// gate, and the internal mutex backstops it.
func (c *Classifier) Train(x [][]float64, labels []intent.Label) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(labels) {
		return fmt.Errorf("feature matrix has %d rows but %d labels", len(x), len(labels))
	}

	classes, y, err := encodeLabels(labels)
	if err != nil {
		return err
	}
	if len(classes) < 2 {
		return ErrTooFewClasses
	}

	scaler := &Scaler{}
	if err := scaler.Fit(x); err != nil {
		return fmt.Errorf("fit scaler: %w", err)
	}

	forest := TrainForest(c.cfg, scaler.TransformMatrix(x), y, len(classes))

	c.current.Store(&artifact{
		Scaler:  scaler,
		Forest:  forest,
		Classes: classes,
	})

	log.Info().
		Int("samples", len(x)).
		Int("classes", len(classes)).
		Int("trees", c.cfg.Trees).
		Msg("intent model trained")
	return nil
}

// Save persists the current artifact pair. It is a no-op when untrained.
func (c *Classifier) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	art := c.current.Load()
	if art == nil {
		return nil
	}
	if c.store == nil {
		log.Debug().Msg("model persistence disabled, skipping save")
		return nil
	}

	scalerBytes, err := gobEncode(art.Scaler)
	if err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	ensembleBytes, err := gobEncode(ensembleBlob{Forest: art.Forest, Classes: art.Classes})
	if err != nil {
		return fmt.Errorf("encode ensemble: %w", err)
	}
	return c.store.SavePair(scalerBytes, ensembleBytes)
}

// Load restores a persisted artifact pair, returning true when a valid pair
// was found and applied. On any miss or decode failure the classifier stays
// in its previous state.
func (c *Classifier) Load() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return false, nil
	}

	scalerBytes, ensembleBytes, found, err := c.store.LoadPair()
	if err != nil {
		return false, fmt.Errorf("read model pair: %w", err)
	}
	if !found {
		return false, nil
	}

	scaler := &Scaler{}
	if err := gobDecode(scalerBytes, scaler); err != nil {
		return false, fmt.Errorf("decode scaler: %w", err)
	}
	var blob ensembleBlob
	if err := gobDecode(ensembleBytes, &blob); err != nil {
		return false, fmt.Errorf("decode ensemble: %w", err)
	}
	if blob.Forest == nil || len(blob.Classes) == 0 {
		return false, fmt.Errorf("persisted ensemble is incomplete")
	}

	c.current.Store(&artifact{
		Scaler:  scaler,
		Forest:  blob.Forest,
		Classes: blob.Classes,
	})
	return true, nil
}

// encodeLabels maps labels to class indices. Classes are ordered by the
// canonical label enumeration so the encoding is stable across runs.
func encodeLabels(labels []intent.Label) ([]intent.Label, []int, error) {
	present := make(map[intent.Label]bool, len(labels))
	for _, l := range labels {
		if !intent.Valid(l) {
			return nil, nil, fmt.Errorf("unknown intent label %q", l)
		}
		present[l] = true
	}

	classes := make([]intent.Label, 0, len(present))
	index := make(map[intent.Label]int, len(present))
	for _, l := range intent.All {
		if present[l] {
			index[l] = len(classes)
			classes = append(classes, l)
		}
	}

	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y, nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
