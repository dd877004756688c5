package predict

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/aidino/mlops-tagifai/artifact"
	"github.com/aidino/mlops-tagifai/classifier"
	"github.com/aidino/mlops-tagifai/config"
	"github.com/aidino/mlops-tagifai/features"
	"github.com/aidino/mlops-tagifai/metrics"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/registry"
)

var trainTexts = []string{
	"image segmentation with convolutional networks",
	"transformer language models for translation",
	"object detection on video frames",
	"sentiment analysis of product reviews",
	"face recognition from camera pictures",
	"named entity recognition in documents",
}

var trainTags = []string{
	"computer-vision",
	"natural-language-processing",
	"computer-vision",
	"natural-language-processing",
	"computer-vision",
	"natural-language-processing",
}

func fittedBundle(t *testing.T) *artifact.Bundle {
	t.Helper()

	encoder := features.NewLabelEncoder()
	if err := encoder.Fit(trainTags); err != nil {
		t.Fatal(err)
	}
	y, err := encoder.Encode(trainTags)
	if err != nil {
		t.Fatal(err)
	}

	vectorizer := features.NewTfidfVectorizer(
		features.WithAnalyzer(config.AnalyzerWord),
		features.WithNGramMax(2),
		features.WithMinDF(1),
	)
	X, err := vectorizer.FitTransform(trainTexts)
	if err != nil {
		t.Fatal(err)
	}

	model := classifier.NewSGDClassifier(classifier.WithEpochs(100))
	if err := model.Fit(X, y, encoder.NumClasses()); err != nil {
		t.Fatal(err)
	}

	yPred, err := model.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	performance, err := metrics.ClassificationReport(y, yPred, encoder.Classes())
	if err != nil {
		t.Fatal(err)
	}

	args := config.DefaultArgumentSet()
	args.Analyzer = config.AnalyzerWord
	args.NGramMaxRange = 2
	args.MinFreq = 1
	args.NumClasses = encoder.NumClasses()

	return &artifact.Bundle{
		Args:         args,
		LabelEncoder: encoder,
		Vectorizer:   vectorizer,
		Model:        model,
		Performance:  performance,
	}
}

func TestPredictBatch(t *testing.T) {
	bundle := fittedBundle(t)
	texts := []string{
		"segmentation of video frames",
		"language models for sentiment analysis",
	}
	predictions, err := Predict(texts, bundle)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(predictions) != len(texts) {
		t.Fatalf("expected %d predictions, got %d", len(texts), len(predictions))
	}
	for i, p := range predictions {
		// Input order is preserved.
		if p.InputText != texts[i] {
			t.Errorf("prediction %d carries text %q, want %q", i, p.InputText, texts[i])
		}
		if p.PredictedProbability <= 0 || p.PredictedProbability > 1 {
			t.Errorf("probability out of (0,1]: %f", p.PredictedProbability)
		}
	}
	if predictions[0].PredictedTag != "computer-vision" {
		t.Errorf("vision text tagged %q", predictions[0].PredictedTag)
	}
	if predictions[1].PredictedTag != "natural-language-processing" {
		t.Errorf("language text tagged %q", predictions[1].PredictedTag)
	}
}

func TestPredictEmptyBatch(t *testing.T) {
	predictions, err := Predict(nil, fittedBundle(t))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if predictions == nil || len(predictions) != 0 {
		t.Errorf("expected empty non-nil result, got %v", predictions)
	}
}

func TestPredictOutOfVocabulary(t *testing.T) {
	bundle := fittedBundle(t)
	predictions, err := Predict([]string{"xylophone zephyr quasar"}, bundle)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	p := predictions[0]
	// Unknown vocabulary degrades to a best-effort prediction.
	found := false
	for _, class := range bundle.LabelEncoder.Classes() {
		if p.PredictedTag == class {
			found = true
		}
	}
	if !found {
		t.Errorf("OOV prediction %q is not a known class", p.PredictedTag)
	}
	if p.PredictedProbability <= 0 || p.PredictedProbability > 1 {
		t.Errorf("OOV probability out of (0,1]: %f", p.PredictedProbability)
	}
}

func TestPredictIncompleteBundle(t *testing.T) {
	bundle := fittedBundle(t)
	bundle.Model = nil
	if _, err := Predict([]string{"anything"}, bundle); err == nil {
		t.Error("expected error for incomplete bundle")
	}
}

func TestLoaderResolvesRuns(t *testing.T) {
	ctx := context.Background()
	store, err := registry.NewStore(t.TempDir(),
		registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	loader := NewLoader(store)

	// With no pointer set there is no silent fallback.
	_, err = loader.Load(ctx, "")
	var notFound *scierr.NotFoundError
	if !scierr.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	bundle := fittedBundle(t)
	runID, err := store.CreateRun(ctx, bundle.Args, bundle.Performance,
		func() (*artifact.Bundle, error) { return bundle, nil })
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	loaded, err := loader.Load(ctx, runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	predictions, err := Predict([]string{"object detection for pictures"}, loaded)
	if err != nil {
		t.Fatalf("Predict on loaded bundle: %v", err)
	}
	if predictions[0].PredictedTag != "computer-vision" {
		t.Errorf("loaded bundle tagged %q", predictions[0].PredictedTag)
	}

	// Promotion makes the empty identifier resolve.
	if _, err := store.SetCurrentRun(runID, ""); err != nil {
		t.Fatalf("SetCurrentRun: %v", err)
	}
	if _, err := loader.Load(ctx, ""); err != nil {
		t.Errorf("Load via pointer: %v", err)
	}
}
