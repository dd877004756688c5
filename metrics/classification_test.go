package metrics

import (
	"math"
	"testing"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassificationReportPerfect(t *testing.T) {
	y := []int{0, 1, 2, 0, 1}
	report, err := ClassificationReport(y, y, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ClassificationReport: %v", err)
	}
	if !almostEqual(report.Overall.Precision, 1) ||
		!almostEqual(report.Overall.Recall, 1) ||
		!almostEqual(report.Overall.F1, 1) {
		t.Errorf("perfect predictions should score 1: %+v", report.Overall)
	}
	if report.Overall.NumSamples != 5 {
		t.Errorf("expected 5 samples, got %d", report.Overall.NumSamples)
	}
	if report.PerClass["a"].NumSamples != 2 {
		t.Errorf("class a support: %+v", report.PerClass["a"])
	}
}

func TestClassificationReportWeighted(t *testing.T) {
	// Class "a": both true rows recovered plus one false positive.
	// Class "b": one of two true rows recovered.
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 0, 0, 1}
	report, err := ClassificationReport(yTrue, yPred, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ClassificationReport: %v", err)
	}

	a := report.PerClass["a"]
	if !almostEqual(a.Precision, 2.0/3.0) || !almostEqual(a.Recall, 1) {
		t.Errorf("class a: %+v", a)
	}
	b := report.PerClass["b"]
	if !almostEqual(b.Precision, 1) || !almostEqual(b.Recall, 0.5) {
		t.Errorf("class b: %+v", b)
	}

	wantF1 := 0.5*a.F1 + 0.5*b.F1
	if !almostEqual(report.Overall.F1, wantF1) {
		t.Errorf("overall f1 %f, want %f", report.Overall.F1, wantF1)
	}
}

func TestClassificationReportUndefinedMetric(t *testing.T) {
	var warned []error
	scierr.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer scierr.SetWarningHandler(nil)

	// Class "c" never appears in yTrue or yPred.
	report, err := ClassificationReport(
		[]int{0, 1}, []int{0, 1}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ClassificationReport: %v", err)
	}
	if got := report.PerClass["c"]; got.Precision != 0 || got.Recall != 0 || got.F1 != 0 {
		t.Errorf("undefined class should report zeros: %+v", got)
	}
	if len(warned) == 0 {
		t.Error("expected an undefined-metric warning")
	}
}

func TestClassificationReportErrors(t *testing.T) {
	classes := []string{"a", "b"}
	if _, err := ClassificationReport(nil, nil, classes); err == nil {
		t.Error("expected error for empty labels")
	}
	if _, err := ClassificationReport([]int{0}, []int{0, 1}, classes); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := ClassificationReport([]int{5}, []int{0}, classes); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestWeightedF1(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 0, 0, 1}

	report, err := ClassificationReport(yTrue, yPred, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	f1, err := WeightedF1(yTrue, yPred, 2)
	if err != nil {
		t.Fatalf("WeightedF1: %v", err)
	}
	if !almostEqual(f1, report.Overall.F1) {
		t.Errorf("WeightedF1 %f disagrees with report %f", f1, report.Overall.F1)
	}
}

func TestWeightedF1NoWarnings(t *testing.T) {
	var warned int
	scierr.SetWarningHandler(func(error) { warned++ })
	defer scierr.SetWarningHandler(nil)

	// Class 2 is never predicted; WeightedF1 must stay silent.
	if _, err := WeightedF1([]int{0, 1, 2}, []int{0, 1, 1}, 3); err != nil {
		t.Fatal(err)
	}
	if warned != 0 {
		t.Errorf("WeightedF1 emitted %d warnings", warned)
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 0, 0})
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if !almostEqual(acc, 0.75) {
		t.Errorf("accuracy %f, want 0.75", acc)
	}
	if _, err := Accuracy(nil, nil); err == nil {
		t.Error("expected error for empty labels")
	}
}
