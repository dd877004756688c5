// Package optimize runs bounded hyperparameter searches: sequential trials
// sampled from an enumerated search space, pruned against the median of
// earlier trials, ranked by a named metric, and merged back into the base
// argument set. Trials carry an explicit state machine (Running → Completed |
// Pruned | Failed) instead of signalling through panics, so the engine's
// decisions are inspectable after the fact.
package optimize

import (
	"github.com/aidino/mlops-tagifai/config"
)

// State is the lifecycle state of a trial. Every trial ends in exactly one
// terminal state.
type State int

const (
	StateRunning State = iota
	StateCompleted
	StatePruned
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StatePruned:
		return "pruned"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Trial is one evaluation attempt: an ordinal index, the sampled parameter
// delta, the intermediate report history, and a terminal state with either an
// objective value (completed) or none (pruned/failed).
type Trial struct {
	index  int
	params config.Params
	study  *Study

	steps   []int
	reports map[int]float64

	state     State
	value     float64
	err       error
	userAttrs map[string]float64
}

func newTrial(index int, params config.Params, study *Study) *Trial {
	return &Trial{
		index:     index,
		params:    params,
		study:     study,
		reports:   make(map[int]float64),
		userAttrs: make(map[string]float64),
	}
}

// Index returns the ordinal index of the trial within its study.
func (t *Trial) Index() int { return t.index }

// Params returns the sampled parameter delta of this trial.
func (t *Trial) Params() config.Params { return t.params }

// State returns the current lifecycle state.
func (t *Trial) State() State { return t.state }

// Value returns the final objective value of a completed trial.
func (t *Trial) Value() float64 { return t.value }

// Err returns the evaluator error of a failed trial.
func (t *Trial) Err() error { return t.err }

// Report records an intermediate objective value at a training step. Reports
// on a non-running trial are dropped: the trial already reached its terminal
// state.
func (t *Trial) Report(step int, value float64) {
	if t.state != StateRunning {
		return
	}
	if _, seen := t.reports[step]; !seen {
		t.steps = append(t.steps, step)
	}
	t.reports[step] = value
}

// ShouldPrune consults the study's pruning policy against the report history
// so far. It only answers; the evaluator decides to stop and calls Prune.
func (t *Trial) ShouldPrune() bool {
	if t.state != StateRunning || t.study == nil || t.study.pruner == nil {
		return false
	}
	return t.study.pruner.ShouldPrune(t.study.completedTrials(), t)
}

// Prune moves the trial to its Pruned terminal state.
func (t *Trial) Prune() {
	if t.state == StateRunning {
		t.state = StatePruned
	}
}

// SetUserAttr records a named metric on the trial, e.g. the ranking metric
// under a name distinct from the raw objective.
func (t *Trial) SetUserAttr(name string, value float64) {
	t.userAttrs[name] = value
}

// UserAttr returns a named metric recorded on the trial.
func (t *Trial) UserAttr(name string) (float64, bool) {
	value, ok := t.userAttrs[name]
	return value, ok
}

// LastStep returns the most recent reported step, or -1 when no report was
// made yet.
func (t *Trial) LastStep() int {
	if len(t.steps) == 0 {
		return -1
	}
	return t.steps[len(t.steps)-1]
}

// NumReports returns the number of distinct reported steps.
func (t *Trial) NumReports() int { return len(t.reports) }

// reportAt returns the intermediate value recorded at a step.
func (t *Trial) reportAt(step int) (float64, bool) {
	value, ok := t.reports[step]
	return value, ok
}

func (t *Trial) complete(value float64) {
	if t.state == StateRunning {
		t.state = StateCompleted
		t.value = value
	}
}

func (t *Trial) fail(err error) {
	if t.state == StateRunning {
		t.state = StateFailed
		t.err = err
	}
}
