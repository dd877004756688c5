// Package artifact defines the bundle of objects a training run produces and
// a later inference session reconstructs: arguments, label encoder,
// vectorizer, trained model and performance report. The five members exist
// together or not at all.
package artifact

import (
	"github.com/aidino/mlops-tagifai/classifier"
	"github.com/aidino/mlops-tagifai/config"
	"github.com/aidino/mlops-tagifai/features"
	"github.com/aidino/mlops-tagifai/metrics"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// Bundle is the durable packet of one training run.
type Bundle struct {
	Args         *config.ArgumentSet
	LabelEncoder *features.LabelEncoder
	Vectorizer   *features.TfidfVectorizer
	Model        classifier.Model
	Performance  *metrics.Report
}

// Validate rejects partial bundles. The returned error names the first
// missing member.
func (b *Bundle) Validate() error {
	if b == nil {
		return scierr.NewValueError("artifact.Bundle", "nil bundle")
	}
	switch {
	case b.Args == nil:
		return scierr.NewValueError("artifact.Bundle", "missing member: args")
	case b.LabelEncoder == nil:
		return scierr.NewValueError("artifact.Bundle", "missing member: label_encoder")
	case b.Vectorizer == nil:
		return scierr.NewValueError("artifact.Bundle", "missing member: vectorizer")
	case b.Model == nil:
		return scierr.NewValueError("artifact.Bundle", "missing member: model")
	case b.Performance == nil:
		return scierr.NewValueError("artifact.Bundle", "missing member: performance")
	}
	return nil
}
