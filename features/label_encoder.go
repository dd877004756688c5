// Package features provides the two fitted transformers a run's artifact
// bundle carries: the label encoder mapping tags to class indices and the
// TF-IDF vectorizer mapping text to feature vectors. Both round-trip through
// the registry — the encoder as JSON, the vectorizer as gob — and restored
// instances behave identically to the fitted originals.
package features

import (
	"encoding/json"
	"io"
	"sort"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// LabelEncoder maps class labels to contiguous integer indices and back.
type LabelEncoder struct {
	ClassToIndex map[string]int `json:"class_to_index"`

	classes []string
	fitted  bool
}

// NewLabelEncoder creates an unfitted label encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the label vocabulary. Classes are sorted so the index assignment
// is deterministic across runs.
func (le *LabelEncoder) Fit(tags []string) error {
	if len(tags) == 0 {
		return scierr.Wrap(scierr.ErrEmptyData, "LabelEncoder.Fit")
	}
	seen := make(map[string]bool)
	for _, tag := range tags {
		seen[tag] = true
	}
	classes := make([]string, 0, len(seen))
	for tag := range seen {
		classes = append(classes, tag)
	}
	sort.Strings(classes)

	le.ClassToIndex = make(map[string]int, len(classes))
	for i, class := range classes {
		le.ClassToIndex[class] = i
	}
	le.classes = classes
	le.fitted = true
	return nil
}

// Encode converts labels to class indices. An unseen label is a value error:
// encoding only happens on labeled training data, never on inference input.
func (le *LabelEncoder) Encode(tags []string) ([]int, error) {
	if !le.fitted {
		return nil, scierr.NewNotFittedError("LabelEncoder", "Encode")
	}
	indices := make([]int, len(tags))
	for i, tag := range tags {
		idx, ok := le.ClassToIndex[tag]
		if !ok {
			return nil, scierr.NewValueError("LabelEncoder.Encode", "unseen label: "+tag)
		}
		indices[i] = idx
	}
	return indices, nil
}

// Decode converts class indices back to labels.
func (le *LabelEncoder) Decode(indices []int) ([]string, error) {
	if !le.fitted {
		return nil, scierr.NewNotFittedError("LabelEncoder", "Decode")
	}
	tags := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(le.classes) {
			return nil, scierr.NewValueError("LabelEncoder.Decode", "class index out of range")
		}
		tags[i] = le.classes[idx]
	}
	return tags, nil
}

// Classes returns the learned labels, index-ordered.
func (le *LabelEncoder) Classes() []string {
	return le.classes
}

// NumClasses returns the number of learned labels.
func (le *LabelEncoder) NumClasses() int {
	return len(le.classes)
}

// Save writes the encoder vocabulary as JSON.
func (le *LabelEncoder) Save(w io.Writer) error {
	if !le.fitted {
		return scierr.NewNotFittedError("LabelEncoder", "Save")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(le)
}

// LoadLabelEncoder reads an encoder vocabulary written by Save.
func LoadLabelEncoder(r io.Reader) (*LabelEncoder, error) {
	le := &LabelEncoder{}
	if err := json.NewDecoder(r).Decode(le); err != nil {
		return nil, scierr.Wrap(err, "features.LoadLabelEncoder")
	}
	if len(le.ClassToIndex) == 0 {
		return nil, scierr.NewValueError("features.LoadLabelEncoder", "empty class vocabulary")
	}
	le.classes = make([]string, len(le.ClassToIndex))
	for class, idx := range le.ClassToIndex {
		if idx < 0 || idx >= len(le.classes) {
			return nil, scierr.NewValueError("features.LoadLabelEncoder", "non-contiguous class indices")
		}
		le.classes[idx] = class
	}
	le.fitted = true
	return le, nil
}
