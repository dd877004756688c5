package features

import (
	"encoding/gob"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/aidino/mlops-tagifai/config"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// ngramMin is the lower bound of the n-gram range. The experiment family
// tunes only the upper bound.
const ngramMin = 2

// TfidfVectorizer converts raw text into l2-normalized TF-IDF feature
// vectors. Fields are exported for gob round-tripping through the registry.
type TfidfVectorizer struct {
	Analyzer  string
	NGramMax  int
	MinDF     int
	Lowercase bool
	Stem      bool

	Vocabulary map[string]int
	IDF        []float64

	fitted bool
}

// VectorizerOption is a functional option for TfidfVectorizer.
type VectorizerOption func(*TfidfVectorizer)

// WithAnalyzer sets the n-gram analyzer: word, char or char_wb.
func WithAnalyzer(analyzer string) VectorizerOption {
	return func(v *TfidfVectorizer) { v.Analyzer = analyzer }
}

// WithNGramMax sets the upper bound of the n-gram range.
func WithNGramMax(n int) VectorizerOption {
	return func(v *TfidfVectorizer) { v.NGramMax = n }
}

// WithMinDF sets the minimum document frequency for a term to enter the
// vocabulary.
func WithMinDF(n int) VectorizerOption {
	return func(v *TfidfVectorizer) { v.MinDF = n }
}

// WithLowercase controls lowercasing before analysis.
func WithLowercase(lower bool) VectorizerOption {
	return func(v *TfidfVectorizer) { v.Lowercase = lower }
}

// WithStemming controls suffix stripping for word tokens.
func WithStemming(stem bool) VectorizerOption {
	return func(v *TfidfVectorizer) { v.Stem = stem }
}

// NewTfidfVectorizer creates a vectorizer with the defaults of the baseline
// experiment family.
func NewTfidfVectorizer(opts ...VectorizerOption) *TfidfVectorizer {
	v := &TfidfVectorizer{
		Analyzer:  config.AnalyzerCharWB,
		NGramMax:  7,
		MinDF:     1,
		Lowercase: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Fit learns the n-gram vocabulary and inverse document frequencies.
func (v *TfidfVectorizer) Fit(texts []string) error {
	if len(texts) == 0 {
		return scierr.Wrap(scierr.ErrEmptyData, "TfidfVectorizer.Fit")
	}
	if v.NGramMax < 1 {
		return scierr.NewValueError("TfidfVectorizer.Fit", "ngram max must be >= 1")
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, term := range v.analyze(text) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	minDF := v.MinDF
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return scierr.NewValueError("TfidfVectorizer.Fit", "no terms pass the min_freq threshold")
	}
	sort.Strings(terms)

	n := float64(len(texts))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// Smoothed IDF, as if one extra document contained every term.
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	v.fitted = true
	return nil
}

// Transform maps texts to a dense (len(texts) x vocabulary) TF-IDF matrix.
// Out-of-vocabulary terms are dropped; a text with no known terms yields an
// all-zero row rather than an error.
func (v *TfidfVectorizer) Transform(texts []string) (*mat.Dense, error) {
	if !v.fitted {
		return nil, scierr.NewNotFittedError("TfidfVectorizer", "Transform")
	}
	if len(texts) == 0 {
		return nil, scierr.Wrap(scierr.ErrEmptyData, "TfidfVectorizer.Transform")
	}
	nFeatures := len(v.IDF)
	X := mat.NewDense(len(texts), nFeatures, nil)
	for i, text := range texts {
		counts := make(map[int]float64)
		for _, term := range v.analyze(text) {
			if j, ok := v.Vocabulary[term]; ok {
				counts[j]++
			}
		}
		var norm float64
		for j, tf := range counts {
			w := tf * v.IDF[j]
			X.Set(i, j, w)
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range counts {
				X.Set(i, j, X.At(i, j)/norm)
			}
		}
	}
	return X, nil
}

// FitTransform fits the vocabulary and transforms the same texts.
func (v *TfidfVectorizer) FitTransform(texts []string) (*mat.Dense, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts)
}

// NumFeatures returns the learned vocabulary size.
func (v *TfidfVectorizer) NumFeatures() int {
	return len(v.IDF)
}

// Save writes the fitted vectorizer state with gob.
func (v *TfidfVectorizer) Save(w io.Writer) error {
	if !v.fitted {
		return scierr.NewNotFittedError("TfidfVectorizer", "Save")
	}
	return gob.NewEncoder(w).Encode(v)
}

// LoadVectorizer reads a vectorizer written by Save.
func LoadVectorizer(r io.Reader) (*TfidfVectorizer, error) {
	v := &TfidfVectorizer{}
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return nil, scierr.Wrap(err, "features.LoadVectorizer")
	}
	if len(v.Vocabulary) == 0 || len(v.IDF) == 0 {
		return nil, scierr.NewValueError("features.LoadVectorizer", "empty vectorizer state")
	}
	v.fitted = true
	return v, nil
}

// analyze produces the n-gram terms of one text under the configured
// analyzer.
func (v *TfidfVectorizer) analyze(text string) []string {
	if v.Lowercase {
		text = strings.ToLower(text)
	}
	switch v.Analyzer {
	case config.AnalyzerChar:
		return charNGrams(text, ngramMin, v.NGramMax)
	case config.AnalyzerCharWB:
		var terms []string
		for _, word := range strings.Fields(text) {
			terms = append(terms, charNGrams(" "+word+" ", ngramMin, v.NGramMax)...)
		}
		return terms
	default: // word
		words := strings.Fields(text)
		if v.Stem {
			for i, w := range words {
				words[i] = stem(w)
			}
		}
		return wordNGrams(words, ngramMin, v.NGramMax)
	}
}

func charNGrams(text string, minN, maxN int) []string {
	runes := []rune(text)
	var grams []string
	for n := minN; n <= maxN && n <= len(runes); n++ {
		for i := 0; i+n <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+n]))
		}
	}
	return grams
}

func wordNGrams(words []string, minN, maxN int) []string {
	var grams []string
	for n := minN; n <= maxN && n <= len(words); n++ {
		for i := 0; i+n <= len(words); i++ {
			grams = append(grams, strings.Join(words[i:i+n], " "))
		}
	}
	return grams
}

// stem strips a few common English suffixes. Kept deliberately minimal: the
// experiment family defaults to stem=false.
func stem(word string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}
