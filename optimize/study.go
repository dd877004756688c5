package optimize

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/aidino/mlops-tagifai/config"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/pkg/log"
)

// Objective evaluates one trial: it merges the trial's sampled parameters
// over the study's base arguments, trains a candidate, reports intermediate
// values through the trial, and returns the final objective (maximized).
// A pruned trial marks itself via Trial.Prune and its return value is
// ignored.
type Objective func(ctx context.Context, trial *Trial) (float64, error)

// Study runs a bounded sequence of trials and selects the best
// configuration. Trials run strictly sequentially: each pruning decision
// depends on the completed history.
type Study struct {
	name        string
	space       config.SearchSpace
	sampler     Sampler
	pruner      Pruner
	rankingAttr string
	logger      *slog.Logger
	rng         *rand.Rand

	trials []*Trial
}

// StudyOption is a functional option for Study.
type StudyOption func(*Study)

// WithSampler sets the sampling strategy.
func WithSampler(sampler Sampler) StudyOption {
	return func(s *Study) { s.sampler = sampler }
}

// WithPruner sets the pruning policy.
func WithPruner(pruner Pruner) StudyOption {
	return func(s *Study) { s.pruner = pruner }
}

// WithRankingAttr names the user attribute trials are ranked by. It may
// differ from the raw objective, e.g. F1 versus a composite loss.
func WithRankingAttr(name string) StudyOption {
	return func(s *Study) { s.rankingAttr = name }
}

// WithSeed seeds the sampler for reproducible searches.
func WithSeed(seed int64) StudyOption {
	return func(s *Study) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the structured logger receiving per-trial records.
func WithLogger(logger *slog.Logger) StudyOption {
	return func(s *Study) { s.logger = logger }
}

// NewStudy creates a study over the given search space. Defaults: random
// sampling, median pruning with 5 startup trials and 5 warm-up steps,
// ranking by the "f1" user attribute.
func NewStudy(name string, space config.SearchSpace, opts ...StudyOption) (*Study, error) {
	if err := space.Validate(); err != nil {
		return nil, scierr.NewConfigurationError("search_space", err.Error(), nil)
	}
	s := &Study{
		name:        name,
		space:       space,
		sampler:     RandomSampler{},
		pruner:      NewMedianPruner(5, 5),
		rankingAttr: "f1",
		logger:      slog.Default(),
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Optimize runs numTrials trials of the objective and returns the base
// argument set with the best trial's parameters merged over it. The base set
// is never mutated. When no trial completes, the search fails with
// OptimizationFailureError instead of silently returning base unchanged.
func (s *Study) Optimize(ctx context.Context, base *config.ArgumentSet, objective Objective, numTrials int) (*config.ArgumentSet, error) {
	if numTrials <= 0 {
		return nil, scierr.NewConfigurationError("num_trials", "must be > 0", numTrials)
	}

	for i := 0; i < numTrials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, scierr.Wrap(err, "optimize: study interrupted")
		}

		params := make(config.Params, len(s.space))
		for _, spec := range s.space {
			params[spec.Name] = s.sampler.Sample(s.rng, spec)
		}
		trial := newTrial(i, params, s)
		s.trials = append(s.trials, trial)

		value, err := s.runObjective(ctx, trial, objective)
		switch {
		case err != nil:
			trial.fail(err)
			s.logger.Warn("trial failed",
				log.TrialIndexKey, trial.index,
				log.TrialStateKey, trial.state.String(),
				log.ErrAttrKey, err,
			)
		case trial.state == StatePruned:
			s.logger.Info("trial pruned",
				log.TrialIndexKey, trial.index,
				log.TrialStateKey, trial.state.String(),
				log.TrialStepKey, trial.LastStep(),
			)
		default:
			trial.complete(value)
			attrs := []any{
				log.TrialIndexKey, trial.index,
				log.TrialStateKey, trial.state.String(),
				log.ObjectiveKey, trial.value,
			}
			for name, v := range trial.userAttrs {
				attrs = append(attrs, "attr."+name, v)
			}
			s.logger.Info("trial completed", attrs...)
		}
	}

	best, err := s.BestTrial()
	if err != nil {
		return nil, err
	}
	tuned, err := base.Merge(best.params)
	if err != nil {
		return nil, err
	}
	s.logger.Info("study finished",
		"study", s.name,
		log.TrialIndexKey, best.index,
		log.ObjectiveKey, best.value,
	)
	return tuned, nil
}

// runObjective isolates one objective call, converting panics into per-trial
// failures so a crashing evaluator cannot abort the whole search.
func (s *Study) runObjective(ctx context.Context, trial *Trial, objective Objective) (value float64, err error) {
	defer scierr.Recover(&err, "Study.runObjective")
	return objective(ctx, trial)
}

// BestTrial returns the completed trial ranked highest by the study's
// ranking attribute, falling back to the raw objective for trials that never
// set the attribute. Ties resolve to the lowest trial index.
func (s *Study) BestTrial() (*Trial, error) {
	completed := s.completedTrials()
	if len(completed) == 0 {
		var pruned, failed int
		for _, trial := range s.trials {
			switch trial.state {
			case StatePruned:
				pruned++
			case StateFailed:
				failed++
			}
		}
		return nil, scierr.NewOptimizationFailureError(
			len(s.trials), 0, pruned, failed, "no trial completed")
	}

	ranked := make([]*Trial, len(completed))
	copy(ranked, completed)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := s.rankingValue(ranked[i]), s.rankingValue(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].index < ranked[j].index
	})
	return ranked[0], nil
}

// Trials returns every trial of the study in creation order.
func (s *Study) Trials() []*Trial {
	return s.trials
}

func (s *Study) rankingValue(t *Trial) float64 {
	if value, ok := t.UserAttr(s.rankingAttr); ok {
		return value
	}
	return t.value
}

func (s *Study) completedTrials() []*Trial {
	var completed []*Trial
	for _, trial := range s.trials {
		if trial.state == StateCompleted {
			completed = append(completed, trial)
		}
	}
	return completed
}
