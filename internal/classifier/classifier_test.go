package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/heuristic"
	"tokenflow-intent/internal/intent"
)

// intentDataset builds a labeled training set covering three intents, with
// feature rows laid out per the extractor's vector schema.
func intentDataset(perClass int) ([][]float64, []intent.Label) {
	var x [][]float64
	var y []intent.Label

	row := func(instr, accounts, fee, transfers, mints, dex, bridge, lending, dispersion, programs float64) []float64 {
		return []float64{instr, accounts, fee, transfers, mints, dex, bridge, lending, dispersion, programs}
	}

	for i := 0; i < perClass; i++ {
		jitter := float64(i % 5)

		x = append(x, row(3+jitter, 8, 5000+100*jitter, 1, 1, 0, 1, 0, 0, 3))
		y = append(y, intent.Bridging)

		x = append(x, row(4+jitter, 10, 7000+100*jitter, 2, 2, 1, 0, 0, 150, 4))
		y = append(y, intent.Trading)

		x = append(x, row(1, 3, 5000+50*jitter, 1, 1, 0, 0, 0, 0, 1))
		y = append(y, intent.Transfer)
	}
	return x, y
}

func testVectors() []features.Vector {
	mk := func(vals [10]float64) features.Vector { return features.Vector(vals) }
	return []features.Vector{
		mk([10]float64{3, 8, 5000, 1, 1, 0, 1, 0, 0, 3}),
		mk([10]float64{4, 10, 7000, 2, 2, 1, 0, 0, 150, 4}),
		mk([10]float64{1, 3, 5000, 1, 1, 0, 0, 0, 0, 1}),
		mk([10]float64{2, 4, 6000, 0, 0, 0, 0, 0, 0, 2}),
	}
}

func TestPredict_UntrainedDelegatesToHeuristic(t *testing.T) {
	clf := New(nil)
	require.False(t, clf.IsTrained())

	for _, v := range testVectors() {
		gotLabel, gotConf := clf.Predict(v)
		wantLabel, wantConf := heuristic.Fallback(v)
		assert.Equal(t, wantLabel, gotLabel)
		assert.Equal(t, wantConf, gotConf)
	}
}

func TestTrainThenPredict(t *testing.T) {
	clf := New(nil)
	x, y := intentDataset(40)

	require.NoError(t, clf.Train(x, y))
	require.True(t, clf.IsTrained())

	var bridgeVec features.Vector
	copy(bridgeVec[:], x[0])
	label, conf := clf.Predict(bridgeVec)
	assert.Equal(t, intent.Bridging, label)
	assert.Greater(t, conf, 0.5)
	assert.LessOrEqual(t, conf, 1.0)
}

func TestPredict_Idempotent(t *testing.T) {
	clf := New(nil)
	x, y := intentDataset(30)
	require.NoError(t, clf.Train(x, y))

	for _, v := range testVectors() {
		l1, c1 := clf.Predict(v)
		l2, c2 := clf.Predict(v)
		assert.Equal(t, l1, l2)
		assert.Equal(t, c1, c2)
	}
}

func TestTrain_ReplacesPriorModel(t *testing.T) {
	clf := New(nil)
	x, y := intentDataset(30)
	require.NoError(t, clf.Train(x, y))

	// Retrain on two classes only; predictions must come from the new model.
	x2, y2 := intentDataset(30)
	for i := range y2 {
		if y2[i] == intent.Transfer {
			y2[i] = intent.Trading
			x2[i][5] = 1 // has_dex
		}
	}
	require.NoError(t, clf.Train(x2, y2))

	var transferVec features.Vector
	copy(transferVec[:], []float64{1, 3, 5000, 1, 1, 0, 0, 0, 0, 1})
	label, _ := clf.Predict(transferVec)
	assert.NotEqual(t, intent.Transfer, label, "replaced model must not retain the dropped class")
}

func TestTrain_Errors(t *testing.T) {
	clf := New(nil)

	err := clf.Train(nil, nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	// Single class present.
	x := [][]float64{
		{1, 1, 1, 1, 1, 0, 0, 0, 0, 1},
		{2, 2, 2, 1, 1, 0, 0, 0, 0, 1},
	}
	y := []intent.Label{intent.Transfer, intent.Transfer}
	err = clf.Train(x, y)
	assert.ErrorIs(t, err, ErrTooFewClasses)
	assert.False(t, clf.IsTrained(), "failed training must leave the classifier untrained")

	// Mismatched lengths.
	err = clf.Train(x, y[:1])
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTooFewClasses))

	// Label outside the enumeration.
	err = clf.Train(x, []intent.Label{intent.Transfer, intent.Label("bogus")})
	assert.Error(t, err)
}

func TestSave_NoopWhenUntrained(t *testing.T) {
	store, err := OpenModelStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	clf := New(store)
	require.NoError(t, clf.Save())

	_, _, found, err := store.LoadPair()
	require.NoError(t, err)
	assert.False(t, found, "untrained save must not write an artifact pair")
}

func TestLoad_EmptyStore(t *testing.T) {
	store, err := OpenModelStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	clf := New(store)
	loaded, err := clf.Load()
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.False(t, clf.IsTrained())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, err := OpenModelStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	trained := New(store)
	x, y := intentDataset(40)
	require.NoError(t, trained.Train(x, y))
	require.NoError(t, trained.Save())

	restored := New(store)
	loaded, err := restored.Load()
	require.NoError(t, err)
	require.True(t, loaded)
	require.True(t, restored.IsTrained())

	// Identical predictions on a fixed test set.
	for _, v := range testVectors() {
		wantLabel, wantConf := trained.Predict(v)
		gotLabel, gotConf := restored.Predict(v)
		assert.Equal(t, wantLabel, gotLabel)
		assert.InDelta(t, wantConf, gotConf, 1e-12)
	}
}
