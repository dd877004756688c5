package classifier

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// separableData builds a linearly separable two-class problem.
func separableData() (*mat.Dense, []int) {
	X := mat.NewDense(8, 2, []float64{
		2.0, 0.1,
		1.8, 0.2,
		2.2, 0.0,
		1.9, 0.3,
		0.1, 2.0,
		0.2, 1.9,
		0.0, 2.1,
		0.3, 1.8,
	})
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return X, y
}

func TestSGDClassifierFitPredict(t *testing.T) {
	X, y := separableData()
	clf := NewSGDClassifier(WithEpochs(200), WithLearningRate(0.5))
	require.NoError(t, clf.Fit(X, y, 2))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred, "separable data should be fit exactly")
}

func TestSGDClassifierProbabilities(t *testing.T) {
	X, y := separableData()
	clf := NewSGDClassifier(WithEpochs(100))
	require.NoError(t, clf.Fit(X, y, 2))

	probs, err := clf.PredictProba(X)
	require.NoError(t, err)
	rows, cols := probs.Dims()
	require.Equal(t, 8, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		sum := probs.At(i, 0) + probs.At(i, 1)
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d probabilities should sum to 1", i)
		assert.GreaterOrEqual(t, probs.At(i, 0), 0.0)
		assert.GreaterOrEqual(t, probs.At(i, 1), 0.0)
	}
}

func TestSGDClassifierLossDecreases(t *testing.T) {
	X, y := separableData()
	var losses []float64
	clf := NewSGDClassifier(WithEpochs(50))
	err := clf.Fit(X, y, 2, func(env *EpochEnv) error {
		losses = append(losses, env.Loss)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, losses, 50)
	assert.Less(t, losses[len(losses)-1], losses[0], "training should reduce the loss")
}

func TestSGDClassifierEarlyStop(t *testing.T) {
	X, y := separableData()
	epochs := 0
	clf := NewSGDClassifier(WithEpochs(100))
	err := clf.Fit(X, y, 2, func(env *EpochEnv) error {
		epochs++
		if env.Epoch == 9 {
			env.StopTraining = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10, epochs)
}

func TestSGDClassifierCallbackError(t *testing.T) {
	X, y := separableData()
	wantErr := scierr.New("abort")
	clf := NewSGDClassifier()
	err := clf.Fit(X, y, 2, func(env *EpochEnv) error { return wantErr })
	require.Error(t, err)
	assert.True(t, scierr.Is(err, wantErr))
}

func TestSGDClassifierFitValidation(t *testing.T) {
	X, y := separableData()
	tests := []struct {
		name string
		fn   func() error
	}{
		{"label mismatch", func() error {
			return NewSGDClassifier().Fit(X, y[:3], 2)
		}},
		{"one class", func() error {
			return NewSGDClassifier().Fit(X, y, 1)
		}},
		{"label out of range", func() error {
			bad := []int{0, 0, 0, 0, 1, 1, 1, 5}
			return NewSGDClassifier().Fit(X, bad, 2)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestSGDClassifierNotFitted(t *testing.T) {
	clf := NewSGDClassifier()
	X := mat.NewDense(1, 2, []float64{1, 2})

	_, err := clf.Predict(X)
	var notFitted *scierr.NotFittedError
	require.Error(t, err)
	assert.True(t, scierr.As(err, &notFitted))

	assert.Error(t, clf.Save(&bytes.Buffer{}))
}

func TestSGDClassifierDimensionMismatch(t *testing.T) {
	X, y := separableData()
	clf := NewSGDClassifier(WithEpochs(10))
	require.NoError(t, clf.Fit(X, y, 2))

	wide := mat.NewDense(1, 3, []float64{1, 2, 3})
	_, err := clf.Predict(wide)
	var dimErr *scierr.DimensionError
	require.Error(t, err)
	assert.True(t, scierr.As(err, &dimErr))
}

func TestSGDClassifierSaveLoad(t *testing.T) {
	X, y := separableData()
	clf := NewSGDClassifier(WithEpochs(100))
	require.NoError(t, clf.Fit(X, y, 2))

	var buf bytes.Buffer
	require.NoError(t, clf.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, clf.NumClasses(), loaded.NumClasses())
	assert.Equal(t, clf.NumFeatures(), loaded.NumFeatures())

	want, err := clf.PredictProba(X)
	require.NoError(t, err)
	got, err := loaded.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12), "restored model predicts differently")
}

func TestLoadCorrupt(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a gob stream")))
	assert.Error(t, err)
}
