package features

import (
	"bytes"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/aidino/mlops-tagifai/config"
)

var corpus = []string{
	"convolutional networks for image classification",
	"transformers for natural language processing",
	"image segmentation with convolutional networks",
	"language models and transfer learning",
}

func TestVectorizerFitTransform(t *testing.T) {
	v := NewTfidfVectorizer(
		WithAnalyzer(config.AnalyzerWord),
		WithNGramMax(2),
		WithMinDF(1),
	)
	X, err := v.FitTransform(corpus)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	rows, cols := X.Dims()
	if rows != len(corpus) {
		t.Fatalf("expected %d rows, got %d", len(corpus), rows)
	}
	if cols != v.NumFeatures() {
		t.Fatalf("column count %d != vocabulary size %d", cols, v.NumFeatures())
	}

	// Rows are l2-normalized.
	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < cols; j++ {
			norm += X.At(i, j) * X.At(i, j)
		}
		if norm < 0.99 || norm > 1.01 {
			t.Errorf("row %d norm %f, expected 1", i, norm)
		}
	}
}

func TestVectorizerOutOfVocabulary(t *testing.T) {
	v := NewTfidfVectorizer(WithAnalyzer(config.AnalyzerWord), WithNGramMax(2))
	if _, err := v.FitTransform(corpus); err != nil {
		t.Fatal(err)
	}

	// Entirely unknown input yields a zero row, not an error.
	X, err := v.Transform([]string{"zzz qqq xxx"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	_, cols := X.Dims()
	for j := 0; j < cols; j++ {
		if X.At(0, j) != 0 {
			t.Fatalf("expected zero row for OOV input, found %f at %d", X.At(0, j), j)
		}
	}
}

func TestVectorizerMinDF(t *testing.T) {
	loose := NewTfidfVectorizer(WithAnalyzer(config.AnalyzerWord), WithNGramMax(2), WithMinDF(1))
	if err := loose.Fit(corpus); err != nil {
		t.Fatal(err)
	}
	strict := NewTfidfVectorizer(WithAnalyzer(config.AnalyzerWord), WithNGramMax(2), WithMinDF(2))
	if err := strict.Fit(corpus); err != nil {
		t.Fatal(err)
	}
	if strict.NumFeatures() >= loose.NumFeatures() {
		t.Errorf("min_df=2 vocabulary (%d) should be smaller than min_df=1 (%d)",
			strict.NumFeatures(), loose.NumFeatures())
	}
}

func TestVectorizerAnalyzers(t *testing.T) {
	tests := []struct {
		name     string
		analyzer string
	}{
		{"word", config.AnalyzerWord},
		{"char", config.AnalyzerChar},
		{"char_wb", config.AnalyzerCharWB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewTfidfVectorizer(WithAnalyzer(tt.analyzer), WithNGramMax(3))
			X, err := v.FitTransform(corpus)
			if err != nil {
				t.Fatalf("FitTransform: %v", err)
			}
			if rows, _ := X.Dims(); rows != len(corpus) {
				t.Errorf("expected %d rows, got %d", len(corpus), rows)
			}
			if v.NumFeatures() == 0 {
				t.Error("empty vocabulary")
			}
		})
	}
}

func TestVectorizerGobRoundTrip(t *testing.T) {
	v := NewTfidfVectorizer(WithAnalyzer(config.AnalyzerCharWB), WithNGramMax(4))
	before, err := v.FitTransform(corpus)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := v.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadVectorizer(&buf)
	if err != nil {
		t.Fatalf("LoadVectorizer: %v", err)
	}

	after, err := loaded.Transform(corpus)
	if err != nil {
		t.Fatalf("Transform after load: %v", err)
	}
	if !mat.EqualApprox(before, after, 1e-12) {
		t.Error("restored vectorizer transforms differently")
	}
}

func TestLoadVectorizerCorrupt(t *testing.T) {
	if _, err := LoadVectorizer(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Error("expected error for corrupt gob stream")
	}
}

func TestVectorizerNotFitted(t *testing.T) {
	v := NewTfidfVectorizer()
	if _, err := v.Transform([]string{"text"}); err == nil {
		t.Error("expected NotFittedError")
	}
	if err := v.Save(&bytes.Buffer{}); err == nil {
		t.Error("expected NotFittedError from Save")
	}
}
