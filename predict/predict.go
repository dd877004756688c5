// Package predict resolves a run into its artifact bundle and performs
// batch inference over it. Prediction is a pure function of the bundle and
// the input texts: it loads nothing, mutates nothing and preserves input
// order.
package predict

import (
	"context"

	"github.com/aidino/mlops-tagifai/artifact"
	"github.com/aidino/mlops-tagifai/registry"
)

// Loader resolves run identifiers into reconstructed artifact bundles.
type Loader struct {
	store *registry.Store
}

// NewLoader creates a loader over a registry store.
func NewLoader(store *registry.Store) *Loader {
	return &Loader{store: store}
}

// Load reconstructs the bundle of the given run. An empty runID resolves via
// the registry's current-run pointer; with no pointer set it fails with
// NotFoundError and never falls back to a default bundle.
func (l *Loader) Load(ctx context.Context, runID string) (*artifact.Bundle, error) {
	return l.store.GetRun(ctx, runID)
}

// Prediction is one inference result. The probability is the model's
// confidence in the predicted tag; out-of-vocabulary input degrades to a
// best-effort class with a correspondingly low probability.
type Prediction struct {
	InputText            string  `json:"input_text"`
	PredictedTag         string  `json:"predicted_tag"`
	PredictedProbability float64 `json:"predicted_probability"`
}

// Predict classifies a batch of texts with a loaded bundle, one result per
// input text in input order. An empty batch returns an empty sequence.
func Predict(texts []string, bundle *artifact.Bundle) ([]Prediction, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return []Prediction{}, nil
	}

	X, err := bundle.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}
	probs, err := bundle.Model.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, k := probs.Dims()
	indices := make([]int, n)
	confidences := make([]float64, n)
	for i := 0; i < n; i++ {
		best, bestProb := 0, probs.At(i, 0)
		for j := 1; j < k; j++ {
			if p := probs.At(i, j); p > bestProb {
				best, bestProb = j, p
			}
		}
		indices[i] = best
		confidences[i] = bestProb
	}
	tags, err := bundle.LabelEncoder.Decode(indices)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, n)
	for i := range predictions {
		predictions[i] = Prediction{
			InputText:            texts[i],
			PredictedTag:         tags[i],
			PredictedProbability: confidences[i],
		}
	}
	return predictions, nil
}
