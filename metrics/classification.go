// Package metrics computes classification performance reports. A report
// always carries the "overall" section (support-weighted precision, recall
// and f1 in [0,1]) and a per-class breakdown; it is produced once per
// completed training and immutable thereafter.
package metrics

import (
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// ClassReport holds the metrics of one section of a report.
type ClassReport struct {
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	F1         float64 `json:"f1"`
	NumSamples int     `json:"num_samples"`
}

// Report is the performance record persisted with a run.
type Report struct {
	Overall  ClassReport            `json:"overall"`
	PerClass map[string]ClassReport `json:"class,omitempty"`
}

// ClassificationReport computes per-class and support-weighted overall
// precision/recall/f1. yTrue and yPred are class indices into classes.
func ClassificationReport(yTrue, yPred []int, classes []string) (*Report, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, scierr.NewValueError("ClassificationReport", "empty label vector")
	}
	if len(yPred) != n {
		return nil, scierr.NewDimensionError("ClassificationReport", n, len(yPred), 0)
	}
	if len(classes) == 0 {
		return nil, scierr.NewValueError("ClassificationReport", "no classes")
	}

	k := len(classes)
	tp := make([]int, k)
	fp := make([]int, k)
	fn := make([]int, k)
	support := make([]int, k)

	for i := 0; i < n; i++ {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, scierr.NewValueError("ClassificationReport", "class index out of range")
		}
		support[t]++
		if t == p {
			tp[t]++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	report := &Report{PerClass: make(map[string]ClassReport, k)}
	var wPrecision, wRecall, wF1 float64
	for c := 0; c < k; c++ {
		precision := safeDivide("precision", classes[c], tp[c], tp[c]+fp[c])
		recall := safeDivide("recall", classes[c], tp[c], tp[c]+fn[c])
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		report.PerClass[classes[c]] = ClassReport{
			Precision:  precision,
			Recall:     recall,
			F1:         f1,
			NumSamples: support[c],
		}
		w := float64(support[c]) / float64(n)
		wPrecision += w * precision
		wRecall += w * recall
		wF1 += w * f1
	}
	report.Overall = ClassReport{
		Precision:  wPrecision,
		Recall:     wRecall,
		F1:         wF1,
		NumSamples: n,
	}
	return report, nil
}

// WeightedF1 computes only the support-weighted F1. Unlike
// ClassificationReport it emits no undefined-metric warnings, making it
// suitable for per-epoch intermediate evaluation where early models
// legitimately miss classes.
func WeightedF1(yTrue, yPred []int, numClasses int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, scierr.NewValueError("WeightedF1", "empty label vector")
	}
	if len(yPred) != n {
		return 0, scierr.NewDimensionError("WeightedF1", n, len(yPred), 0)
	}
	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)
	support := make([]int, numClasses)
	for i := 0; i < n; i++ {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return 0, scierr.NewValueError("WeightedF1", "class index out of range")
		}
		support[t]++
		if t == p {
			tp[t]++
		} else {
			fp[p]++
			fn[t]++
		}
	}
	var weighted float64
	for c := 0; c < numClasses; c++ {
		var precision, recall float64
		if tp[c]+fp[c] > 0 {
			precision = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			recall = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		if precision+recall > 0 {
			weighted += float64(support[c]) / float64(n) * 2 * precision * recall / (precision + recall)
		}
	}
	return weighted, nil
}

// Accuracy returns the fraction of matching predictions.
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, scierr.NewValueError("Accuracy", "empty label vector")
	}
	if len(yPred) != n {
		return 0, scierr.NewDimensionError("Accuracy", n, len(yPred), 0)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// safeDivide returns num/den, warning and returning 0 when the metric is
// undefined for the class (no predicted or no true samples).
func safeDivide(metric, class string, num, den int) float64 {
	if den == 0 {
		scierr.Warn(scierr.NewUndefinedMetricWarning(
			metric, "no samples for class "+class, 0))
		return 0
	}
	return float64(num) / float64(den)
}
