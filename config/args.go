// Package config holds the typed argument set driving training and
// optimization, and the enumerated schema of tunable hyperparameters.
//
// The argument set serializes to the flat JSON file read at pipeline start and
// written back after a study. Keys are stable across an experiment family;
// tunable values are overridden per trial, structural values stay fixed.
package config

import (
	"encoding/json"
	"os"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// Valid analyzer modes for the TF-IDF vectorizer.
const (
	AnalyzerWord   = "word"
	AnalyzerChar   = "char"
	AnalyzerCharWB = "char_wb"
)

// ArgumentSet is the complete configuration of one training attempt.
//
// The first block is structural (fixed per experiment family), the second is
// tunable (overridden by the optimization engine), and the last two fields are
// resolved at training time and carried so a persisted run is self-describing.
type ArgumentSet struct {
	// Data preparation
	Shuffle bool `json:"shuffle"`
	Subset  int  `json:"subset"` // cap on training rows, 0 means all
	MinFreq int  `json:"min_freq"`
	Lower   bool `json:"lower"`
	Stem    bool `json:"stem"`

	// Tunable hyperparameters
	Analyzer      string  `json:"analyzer"`
	NGramMaxRange int     `json:"ngram_max_range"`
	Alpha         float64 `json:"alpha"`
	LearningRate  float64 `json:"learning_rate"`
	PowerT        float64 `json:"power_t"`

	// Training loop
	NumEpochs int `json:"num_epochs"`

	// Resolved at training time
	Threshold  float64 `json:"threshold"`
	NumClasses int     `json:"num_classes"`
}

// DefaultArgumentSet returns the baseline configuration used when no args
// file exists yet.
func DefaultArgumentSet() *ArgumentSet {
	return &ArgumentSet{
		Shuffle:       true,
		Subset:        0,
		MinFreq:       75,
		Lower:         true,
		Stem:          false,
		Analyzer:      AnalyzerCharWB,
		NGramMaxRange: 7,
		Alpha:         1e-4,
		LearningRate:  1e-1,
		PowerT:        0.1,
		NumEpochs:     100,
	}
}

// Validate checks that every key the trainer requires is present and sane.
func (a *ArgumentSet) Validate() error {
	switch a.Analyzer {
	case AnalyzerWord, AnalyzerChar, AnalyzerCharWB:
	case "":
		return scierr.NewConfigurationError("analyzer", "required key is missing", a.Analyzer)
	default:
		return scierr.NewConfigurationError("analyzer", "must be one of word, char, char_wb", a.Analyzer)
	}
	if a.NGramMaxRange < 1 {
		return scierr.NewConfigurationError("ngram_max_range", "must be >= 1", a.NGramMaxRange)
	}
	if a.Alpha <= 0 {
		return scierr.NewConfigurationError("alpha", "must be > 0", a.Alpha)
	}
	if a.LearningRate <= 0 {
		return scierr.NewConfigurationError("learning_rate", "must be > 0", a.LearningRate)
	}
	if a.PowerT <= 0 || a.PowerT > 1 {
		return scierr.NewConfigurationError("power_t", "must be in (0, 1]", a.PowerT)
	}
	if a.NumEpochs <= 0 {
		return scierr.NewConfigurationError("num_epochs", "must be > 0", a.NumEpochs)
	}
	if a.MinFreq < 0 {
		return scierr.NewConfigurationError("min_freq", "must be >= 0", a.MinFreq)
	}
	if a.Subset < 0 {
		return scierr.NewConfigurationError("subset", "must be >= 0", a.Subset)
	}
	return nil
}

// Clone returns a copy; the argument set is a flat value type so a shallow
// copy is a full copy.
func (a *ArgumentSet) Clone() *ArgumentSet {
	clone := *a
	return &clone
}

// Merge returns a new argument set with the sampled parameter values applied
// over a. The receiver is never mutated. Unknown parameter names are a
// configuration error so a schema/trainer mismatch surfaces immediately.
func (a *ArgumentSet) Merge(params Params) (*ArgumentSet, error) {
	merged := a.Clone()
	for _, name := range params.Names() {
		value := params[name]
		switch name {
		case "analyzer":
			merged.Analyzer = value.Str
		case "ngram_max_range":
			merged.NGramMaxRange = value.Int
		case "alpha":
			merged.Alpha = value.Float
		case "learning_rate":
			merged.LearningRate = value.Float
		case "power_t":
			merged.PowerT = value.Float
		case "min_freq":
			merged.MinFreq = value.Int
		case "num_epochs":
			merged.NumEpochs = value.Int
		default:
			return nil, scierr.NewConfigurationError(name, "unknown tunable parameter", value)
		}
	}
	return merged, nil
}

// LoadArgumentSet reads an argument set from a flat JSON file.
func LoadArgumentSet(path string) (*ArgumentSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, scierr.NewStorageError("config.LoadArgumentSet", path, err)
	}
	args := &ArgumentSet{}
	if err := json.Unmarshal(raw, args); err != nil {
		return nil, scierr.NewConfigurationError("args", "malformed JSON", err.Error())
	}
	return args, nil
}

// Save writes the argument set as indented JSON. Integer-valued fields stay
// integers on disk: the typed struct guarantees the numeric round-trip the
// flat-file contract requires.
func (a *ArgumentSet) Save(path string) error {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return scierr.Wrap(err, "config.Save: marshal")
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return scierr.NewStorageError("config.Save", path, err)
	}
	return nil
}
