package optimize

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Pruner decides whether a running trial should be abandoned based on the
// intermediate history of earlier, completed trials.
type Pruner interface {
	ShouldPrune(completed []*Trial, current *Trial) bool
}

// MedianPruner prunes a trial whose intermediate value at the current step is
// worse than the median of the values completed trials reported at the same
// step. Two gates guarantee a fair minimum of work: no pruning until
// NStartupTrials trials have fully completed, and no pruning within a trial
// until it has made NWarmupSteps intermediate reports.
type MedianPruner struct {
	NStartupTrials int
	NWarmupSteps   int
}

// NewMedianPruner creates a MedianPruner with the given gates.
func NewMedianPruner(nStartupTrials, nWarmupSteps int) *MedianPruner {
	return &MedianPruner{
		NStartupTrials: nStartupTrials,
		NWarmupSteps:   nWarmupSteps,
	}
}

// ShouldPrune implements Pruner. The objective is maximized, so "worse" means
// strictly below the median.
func (p *MedianPruner) ShouldPrune(completed []*Trial, current *Trial) bool {
	if len(completed) < p.NStartupTrials {
		return false
	}
	if current.NumReports() < p.NWarmupSteps {
		return false
	}
	step := current.LastStep()
	value, ok := current.reportAt(step)
	if !ok {
		return false
	}

	var peers []float64
	for _, trial := range completed {
		if v, ok := trial.reportAt(step); ok {
			peers = append(peers, v)
		}
	}
	if len(peers) == 0 {
		return false
	}
	sort.Float64s(peers)
	median := stat.Quantile(0.5, stat.LinInterp, peers, nil)
	return value < median
}

// NopPruner never prunes; useful for exhaustive searches and tests.
type NopPruner struct{}

// ShouldPrune implements Pruner.
func (NopPruner) ShouldPrune([]*Trial, *Trial) bool { return false }
