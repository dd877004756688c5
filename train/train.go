// Package train is the trial evaluator: given a labeled dataset and an
// argument set it fits the label encoder, the vectorizer and the classifier,
// evaluates them, and returns the complete artifact bundle. It never mutates
// its inputs; runtime-resolved values (class count, decision threshold) are
// returned on a fresh argument set inside the bundle.
package train

import (
	"context"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aidino/mlops-tagifai/artifact"
	"github.com/aidino/mlops-tagifai/classifier"
	"github.com/aidino/mlops-tagifai/config"
	"github.com/aidino/mlops-tagifai/data"
	"github.com/aidino/mlops-tagifai/features"
	"github.com/aidino/mlops-tagifai/metrics"
	"github.com/aidino/mlops-tagifai/optimize"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/pkg/log"
)

// splitSeed fixes the dataset permutation so every trial of a study sees the
// same splits.
const splitSeed = 1234

// thresholdQuantile is the quantile of max validation probabilities used as
// the resolved decision threshold.
const thresholdQuantile = 0.25

// Train fits one model configuration and returns its artifact bundle.
//
// When a trial is supplied the validation F1 is reported to it after every
// epoch and the fit stops early if the trial gets pruned; in that case Train
// returns a nil bundle with a nil error and the trial carries the Pruned
// state. Missing or invalid required arguments fail with ConfigurationError.
func Train(ctx context.Context, ds data.Dataset, args *config.ArgumentSet, trial *optimize.Trial) (*artifact.Bundle, error) {
	if args == nil {
		return nil, scierr.NewConfigurationError("args", "required argument set is missing", nil)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}

	splits, err := data.Split(ds, args.Shuffle, splitSeed, args.Subset)
	if err != nil {
		return nil, err
	}

	// Label encoder sees every tag in the dataset so validation and test
	// labels are always encodable.
	encoder := features.NewLabelEncoder()
	if err := encoder.Fit(ds.Tags()); err != nil {
		return nil, err
	}
	yTrain, err := encoder.Encode(splits.Train.Tags())
	if err != nil {
		return nil, err
	}
	yVal, err := encoder.Encode(splits.Val.Tags())
	if err != nil {
		return nil, err
	}
	yTest, err := encoder.Encode(splits.Test.Tags())
	if err != nil {
		return nil, err
	}

	vectorizer := features.NewTfidfVectorizer(
		features.WithAnalyzer(args.Analyzer),
		features.WithNGramMax(args.NGramMaxRange),
		features.WithMinDF(args.MinFreq),
		features.WithLowercase(args.Lower),
		features.WithStemming(args.Stem),
	)
	XTrain, err := vectorizer.FitTransform(splits.Train.Texts())
	if err != nil {
		return nil, err
	}
	XVal, err := vectorizer.Transform(splits.Val.Texts())
	if err != nil {
		return nil, err
	}
	XTest, err := vectorizer.Transform(splits.Test.Texts())
	if err != nil {
		return nil, err
	}

	slog.Default().Debug("training candidate",
		log.OperationKey, "train",
		log.SamplesKey, len(splits.Train),
		log.FeaturesKey, vectorizer.NumFeatures(),
		log.ClassesKey, encoder.NumClasses(),
	)

	model := classifier.NewSGDClassifier(
		classifier.WithAlpha(args.Alpha),
		classifier.WithLearningRate(args.LearningRate),
		classifier.WithPowerT(args.PowerT),
		classifier.WithEpochs(args.NumEpochs),
	)
	err = model.Fit(XTrain, yTrain, encoder.NumClasses(), func(env *classifier.EpochEnv) error {
		if err := ctx.Err(); err != nil {
			return scierr.Wrap(err, "train: interrupted")
		}
		if trial == nil {
			return nil
		}
		valF1, err := validationF1(env.Model, XVal, yVal, encoder.Classes())
		if err != nil {
			return err
		}
		trial.Report(env.Epoch, valF1)
		if trial.ShouldPrune() {
			trial.Prune()
			env.StopTraining = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if trial != nil && trial.State() == optimize.StatePruned {
		return nil, nil
	}

	resolved := args.Clone()
	resolved.NumClasses = encoder.NumClasses()
	resolved.Threshold, err = decisionThreshold(model, XVal)
	if err != nil {
		return nil, err
	}

	yPred, err := model.Predict(XTest)
	if err != nil {
		return nil, err
	}
	performance, err := metrics.ClassificationReport(yTest, yPred, encoder.Classes())
	if err != nil {
		return nil, err
	}

	bundle := &artifact.Bundle{
		Args:         resolved,
		LabelEncoder: encoder,
		Vectorizer:   vectorizer,
		Model:        model,
		Performance:  performance,
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// MakeObjective returns the study objective over a fixed dataset and base
// argument set: merge the trial's sampled parameters, train, record
// precision/recall/f1 as user attributes, return the overall F1.
func MakeObjective(ds data.Dataset, base *config.ArgumentSet) optimize.Objective {
	return func(ctx context.Context, trial *optimize.Trial) (float64, error) {
		args, err := base.Merge(trial.Params())
		if err != nil {
			return 0, err
		}
		bundle, err := Train(ctx, ds, args, trial)
		if err != nil {
			return 0, err
		}
		if trial.State() == optimize.StatePruned {
			return 0, nil
		}
		overall := bundle.Performance.Overall
		trial.SetUserAttr("precision", overall.Precision)
		trial.SetUserAttr("recall", overall.Recall)
		trial.SetUserAttr("f1", overall.F1)
		return overall.F1, nil
	}
}

// validationF1 computes the support-weighted F1 of the current model state on
// the validation split.
func validationF1(model *classifier.SGDClassifier, XVal *mat.Dense, yVal []int, classes []string) (float64, error) {
	preds, err := model.Predict(XVal)
	if err != nil {
		return 0, err
	}
	return metrics.WeightedF1(yVal, preds, len(classes))
}

// decisionThreshold resolves the runtime decision threshold as a low quantile
// of the maximum class probability over the validation split.
func decisionThreshold(model classifier.Model, XVal *mat.Dense) (float64, error) {
	probs, err := model.PredictProba(XVal)
	if err != nil {
		return 0, err
	}
	n, k := probs.Dims()
	maxes := make([]float64, n)
	for i := 0; i < n; i++ {
		best := probs.At(i, 0)
		for j := 1; j < k; j++ {
			if p := probs.At(i, j); p > best {
				best = p
			}
		}
		maxes[i] = best
	}
	sort.Float64s(maxes)
	return stat.Quantile(thresholdQuantile, stat.LinInterp, maxes, nil), nil
}
