package config

import (
	"fmt"
	"sort"
)

// ParamKind enumerates the sampling strategies a tunable parameter supports.
type ParamKind int

const (
	// Categorical draws uniformly from a fixed choice list.
	Categorical ParamKind = iota
	// IntUniform draws an integer uniformly from [Low, High].
	IntUniform
	// Uniform draws a float uniformly from [Low, High).
	Uniform
	// LogUniform draws a float log-uniformly from [Low, High).
	LogUniform
)

// String returns the kind name used in logs and errors.
func (k ParamKind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case IntUniform:
		return "int"
	case Uniform:
		return "uniform"
	case LogUniform:
		return "loguniform"
	default:
		return "unknown"
	}
}

// ParamSpec declares one tunable parameter: its name, sampling kind and the
// valid range or choices. The enumerated schema makes the search space
// checkable before any trial runs.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Low     float64
	High    float64
	Choices []string
}

// Validate rejects degenerate specs (empty choice lists, inverted ranges,
// non-positive log bounds).
func (s ParamSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("param spec without a name")
	}
	switch s.Kind {
	case Categorical:
		if len(s.Choices) == 0 {
			return fmt.Errorf("categorical param %q has no choices", s.Name)
		}
	case IntUniform, Uniform:
		if s.High < s.Low {
			return fmt.Errorf("param %q has inverted range [%g, %g]", s.Name, s.Low, s.High)
		}
	case LogUniform:
		if s.Low <= 0 || s.High < s.Low {
			return fmt.Errorf("loguniform param %q needs 0 < low <= high, got [%g, %g]", s.Name, s.Low, s.High)
		}
	default:
		return fmt.Errorf("param %q has unknown kind %d", s.Name, s.Kind)
	}
	return nil
}

// ParamValue is one sampled value. Exactly one of the fields is meaningful,
// selected by Kind.
type ParamValue struct {
	Kind  ParamKind `json:"kind"`
	Str   string    `json:"str,omitempty"`
	Int   int       `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
}

// Value returns the sampled value as an untyped scalar, for logging.
func (v ParamValue) Value() interface{} {
	switch v.Kind {
	case Categorical:
		return v.Str
	case IntUniform:
		return v.Int
	default:
		return v.Float
	}
}

// Params maps parameter name to sampled value: one trial's delta over the
// base argument set.
type Params map[string]ParamValue

// Names returns the parameter names in deterministic order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchSpace is the enumerated set of tunable parameters for a study.
type SearchSpace []ParamSpec

// Validate checks every spec in the space.
func (ss SearchSpace) Validate() error {
	seen := make(map[string]bool, len(ss))
	for _, spec := range ss {
		if err := spec.Validate(); err != nil {
			return err
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate param spec %q", spec.Name)
		}
		seen[spec.Name] = true
	}
	return nil
}

// DefaultSearchSpace is the tunable subset of the argument set searched by
// the baseline study.
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		{Name: "analyzer", Kind: Categorical, Choices: []string{AnalyzerWord, AnalyzerChar, AnalyzerCharWB}},
		{Name: "ngram_max_range", Kind: IntUniform, Low: 3, High: 10},
		{Name: "learning_rate", Kind: LogUniform, Low: 1e-2, High: 1e0},
		{Name: "power_t", Kind: Uniform, Low: 0.1, High: 0.5},
	}
}
