package optimize

import (
	"math"
	"math/rand"

	"github.com/aidino/mlops-tagifai/config"
)

// Sampler draws one value for a tunable parameter. Sampling strategy is
// pluggable per study; the spec kind selects the distribution.
type Sampler interface {
	Sample(rng *rand.Rand, spec config.ParamSpec) config.ParamValue
}

// RandomSampler samples independently from each parameter's declared
// distribution.
type RandomSampler struct{}

// Sample implements Sampler.
func (RandomSampler) Sample(rng *rand.Rand, spec config.ParamSpec) config.ParamValue {
	switch spec.Kind {
	case config.Categorical:
		return config.ParamValue{
			Kind: config.Categorical,
			Str:  spec.Choices[rng.Intn(len(spec.Choices))],
		}
	case config.IntUniform:
		low, high := int(spec.Low), int(spec.High)
		return config.ParamValue{
			Kind: config.IntUniform,
			Int:  low + rng.Intn(high-low+1),
		}
	case config.LogUniform:
		logLow, logHigh := math.Log(spec.Low), math.Log(spec.High)
		return config.ParamValue{
			Kind:  config.LogUniform,
			Float: math.Exp(logLow + rng.Float64()*(logHigh-logLow)),
		}
	default: // Uniform
		return config.ParamValue{
			Kind:  config.Uniform,
			Float: spec.Low + rng.Float64()*(spec.High-spec.Low),
		}
	}
}
