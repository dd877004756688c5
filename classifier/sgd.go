// Package classifier implements the trainable model of the pipeline: a
// multinomial logistic classifier fit with stochastic gradient descent under
// an inverse-scaling learning-rate schedule. Storage and inference code only
// see the Model capability interface, so the bundle never depends on this
// concrete implementation.
package classifier

import (
	"encoding/gob"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// Model is the capability a trained model exposes to storage and inference:
// class-probability prediction plus serialization. Deserialization lives in
// Load.
type Model interface {
	NumClasses() int
	NumFeatures() int
	Predict(X mat.Matrix) ([]int, error)
	PredictProba(X mat.Matrix) (*mat.Dense, error)
	Save(w io.Writer) error
}

// EpochEnv is the environment passed to epoch callbacks during training.
type EpochEnv struct {
	Model        *SGDClassifier
	Epoch        int
	Loss         float64
	StopTraining bool
}

// EpochCallback is invoked after every training epoch. Setting StopTraining
// ends the fit early; returning an error aborts it.
type EpochCallback func(env *EpochEnv) error

// SGDClassifier is a softmax classifier trained by full-batch gradient
// descent with L2 regularization. Exported fields round-trip through gob.
type SGDClassifier struct {
	// Hyperparameters
	Alpha        float64 // L2 regularization strength
	LearningRate float64 // initial learning rate eta0
	PowerT       float64 // inverse-scaling exponent: eta = eta0 / t^PowerT
	Epochs       int

	// Learned parameters, row-major (Classes x Features)
	Weights   []float64
	Intercept []float64
	Classes   int
	Features  int

	fitted bool
}

// Option is a functional option for SGDClassifier.
type Option func(*SGDClassifier)

// WithAlpha sets the L2 regularization strength.
func WithAlpha(alpha float64) Option {
	return func(c *SGDClassifier) { c.Alpha = alpha }
}

// WithLearningRate sets the initial learning rate.
func WithLearningRate(eta0 float64) Option {
	return func(c *SGDClassifier) { c.LearningRate = eta0 }
}

// WithPowerT sets the inverse-scaling exponent of the learning-rate schedule.
func WithPowerT(powerT float64) Option {
	return func(c *SGDClassifier) { c.PowerT = powerT }
}

// WithEpochs sets the number of training epochs.
func WithEpochs(epochs int) Option {
	return func(c *SGDClassifier) { c.Epochs = epochs }
}

// NewSGDClassifier creates a classifier with baseline hyperparameters.
func NewSGDClassifier(opts ...Option) *SGDClassifier {
	c := &SGDClassifier{
		Alpha:        1e-4,
		LearningRate: 1e-1,
		PowerT:       0.1,
		Epochs:       100,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit trains the classifier on X (n x features) with class indices y.
// Callbacks observe every epoch; the input matrix and labels are never
// mutated.
func (c *SGDClassifier) Fit(X *mat.Dense, y []int, numClasses int, callbacks ...EpochCallback) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return scierr.Wrap(scierr.ErrEmptyData, "SGDClassifier.Fit")
	}
	if len(y) != n {
		return scierr.NewDimensionError("SGDClassifier.Fit", n, len(y), 0)
	}
	if numClasses < 2 {
		return scierr.NewValueError("SGDClassifier.Fit", "need at least two classes")
	}
	for _, label := range y {
		if label < 0 || label >= numClasses {
			return scierr.NewValueError("SGDClassifier.Fit", "label out of range")
		}
	}

	c.Classes = numClasses
	c.Features = d
	c.Weights = make([]float64, numClasses*d)
	c.Intercept = make([]float64, numClasses)
	c.fitted = true // scores() is used mid-training

	for epoch := 0; epoch < c.Epochs; epoch++ {
		eta := c.LearningRate / math.Pow(float64(epoch+1), c.PowerT)

		probs, err := c.PredictProba(X)
		if err != nil {
			return err
		}

		// Cross-entropy loss with L2 penalty.
		loss := 0.0
		for i := 0; i < n; i++ {
			loss -= math.Log(math.Max(probs.At(i, y[i]), 1e-15))
		}
		loss /= float64(n)
		for _, w := range c.Weights {
			loss += 0.5 * c.Alpha * w * w
		}
		if err := scierr.CheckScalar("SGDClassifier.Fit loss", loss, epoch); err != nil {
			return err
		}

		// Gradient step: grad = X^T (P - Y) / n + alpha * W.
		for i := 0; i < n; i++ {
			probs.Set(i, y[i], probs.At(i, y[i])-1)
		}
		var grad mat.Dense
		grad.Mul(probs.T(), X) // (classes x features)
		for k := 0; k < numClasses; k++ {
			var interceptGrad float64
			for i := 0; i < n; i++ {
				interceptGrad += probs.At(i, k)
			}
			c.Intercept[k] -= eta * interceptGrad / float64(n)
			for j := 0; j < d; j++ {
				idx := k*d + j
				g := grad.At(k, j)/float64(n) + c.Alpha*c.Weights[idx]
				c.Weights[idx] -= eta * g
			}
		}

		env := &EpochEnv{Model: c, Epoch: epoch, Loss: loss}
		for _, callback := range callbacks {
			if err := callback(env); err != nil {
				return err
			}
		}
		if env.StopTraining {
			break
		}
	}
	return nil
}

// NumClasses returns the number of target classes.
func (c *SGDClassifier) NumClasses() int { return c.Classes }

// NumFeatures returns the trained feature dimension.
func (c *SGDClassifier) NumFeatures() int { return c.Features }

// PredictProba returns the softmax class probabilities, one row per input
// row. A feature vector with no known terms (all zeros) degrades to the
// model's prior-like scores rather than failing.
func (c *SGDClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !c.fitted {
		return nil, scierr.NewNotFittedError("SGDClassifier", "PredictProba")
	}
	n, d := X.Dims()
	if d != c.Features {
		return nil, scierr.NewDimensionError("SGDClassifier.PredictProba", c.Features, d, 1)
	}

	W := mat.NewDense(c.Classes, c.Features, c.Weights)
	var scores mat.Dense
	scores.Mul(X, W.T()) // (n x classes)

	probs := mat.NewDense(n, c.Classes, nil)
	for i := 0; i < n; i++ {
		maxScore := math.Inf(-1)
		for k := 0; k < c.Classes; k++ {
			s := scores.At(i, k) + c.Intercept[k]
			scores.Set(i, k, s)
			if s > maxScore {
				maxScore = s
			}
		}
		var sum float64
		for k := 0; k < c.Classes; k++ {
			e := math.Exp(scores.At(i, k) - maxScore)
			probs.Set(i, k, e)
			sum += e
		}
		for k := 0; k < c.Classes; k++ {
			probs.Set(i, k, probs.At(i, k)/sum)
		}
	}
	return probs, nil
}

// Predict returns the most probable class index per input row.
func (c *SGDClassifier) Predict(X mat.Matrix) ([]int, error) {
	probs, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := probs.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		best, bestProb := 0, probs.At(i, 0)
		for k := 1; k < c.Classes; k++ {
			if p := probs.At(i, k); p > bestProb {
				best, bestProb = k, p
			}
		}
		labels[i] = best
	}
	return labels, nil
}

// Save writes the trained model state with gob.
func (c *SGDClassifier) Save(w io.Writer) error {
	if !c.fitted {
		return scierr.NewNotFittedError("SGDClassifier", "Save")
	}
	return gob.NewEncoder(w).Encode(c)
}

// Load reads a model written by Save.
func Load(r io.Reader) (Model, error) {
	c := &SGDClassifier{}
	if err := gob.NewDecoder(r).Decode(c); err != nil {
		return nil, scierr.Wrap(err, "classifier.Load")
	}
	if c.Classes < 2 || c.Features < 1 || len(c.Weights) != c.Classes*c.Features {
		return nil, scierr.NewValueError("classifier.Load", "inconsistent model state")
	}
	c.fitted = true
	return c, nil
}
