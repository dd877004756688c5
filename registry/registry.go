// Package registry persists completed training runs and resolves them back
// into artifact bundles. A run is written exactly once at creation and
// immutable afterwards; reads are unlimited and idempotent. Each run's light
// artifacts live under artifacts/ while the model is registered under a
// separate model/ path, and both are fetched to reconstruct a bundle.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aidino/mlops-tagifai/artifact"
	"github.com/aidino/mlops-tagifai/classifier"
	"github.com/aidino/mlops-tagifai/config"
	"github.com/aidino/mlops-tagifai/features"
	"github.com/aidino/mlops-tagifai/metrics"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/pkg/log"
)

// On-disk layout per run identifier.
const (
	runsDir          = "runs"
	artifactsDir     = "artifacts"
	modelDir         = "model"
	argsFile         = "args.json"
	labelEncoderFile = "label_encoder.json"
	vectorizerFile   = "vectorizer.gob"
	performanceFile  = "performance.json"
	modelFile        = "model.gob"
	pointerFile      = "current_run.json"
)

// Store is a single-tenant, file-backed run registry rooted at one
// directory. Creation assumes a single writer per run identifier; finalized
// runs allow unlimited concurrent readers.
type Store struct {
	root   string
	logger *slog.Logger
}

// StoreOption is a functional option for Store.
type StoreOption func(*Store)

// WithLogger sets the structured logger for registry operations.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore opens (or initializes) a registry rooted at dir.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, runsDir), 0o755); err != nil {
		return nil, scierr.NewStorageError("registry.NewStore", dir, err)
	}
	s := &Store{root: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BundleProducer materializes the artifact bundle of a finished training run.
type BundleProducer func() (*artifact.Bundle, error)

// CreateRun allocates a fresh run identifier, persists args and performance,
// and materializes the producer's bundle into durable storage under that
// identifier. The bundle is staged in temporary local storage that is always
// released, whether persistence succeeds or fails. CreateRun never updates
// the current-run pointer; promoting a run is the caller's explicit decision.
func (s *Store) CreateRun(ctx context.Context, args *config.ArgumentSet, performance *metrics.Report, produce BundleProducer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", scierr.Wrap(err, "registry.CreateRun")
	}
	if args == nil || performance == nil {
		return "", scierr.NewValueError("registry.CreateRun", "args and performance are required")
	}

	bundle, err := produce()
	if err != nil {
		return "", scierr.Wrap(err, "registry.CreateRun: bundle producer")
	}
	if err := bundle.Validate(); err != nil {
		return "", err
	}

	runID := uuid.NewString()

	stage, err := os.MkdirTemp("", "tagifai-stage-*")
	if err != nil {
		return "", scierr.NewStorageError("registry.CreateRun", "stage", err)
	}
	defer os.RemoveAll(stage)

	if err := s.stageBundle(stage, args, performance, bundle); err != nil {
		return "", err
	}

	dst := s.runDir(runID)
	if _, err := os.Stat(dst); err == nil {
		return "", scierr.NewStorageError("registry.CreateRun", dst, scierr.New("run identifier collision"))
	}
	if err := copyTree(stage, dst); err != nil {
		os.RemoveAll(dst) // no partial runs
		return "", err
	}

	s.logger.Info("run created",
		log.OperationKey, "create_run",
		log.RunIDKey, runID,
		log.F1Key, performance.Overall.F1,
	)
	return runID, nil
}

// GetRun reconstructs the full artifact bundle of a run. An empty runID
// resolves through the current-run pointer and fails with NotFoundError when
// no pointer is set. A member that exists but cannot be deserialized, or a
// missing member of an otherwise present run, fails with
// CorruptArtifactError; the caller never sees a partial bundle. Repeated
// calls for the same identifier return equal results.
func (s *Store) GetRun(ctx context.Context, runID string) (*artifact.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, scierr.Wrap(err, "registry.GetRun")
	}
	if runID == "" {
		pointer, err := s.CurrentRun()
		if err != nil {
			return nil, err
		}
		runID = pointer.RunID
	}

	dir := s.runDir(runID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, scierr.NewNotFoundError("run", runID)
		}
		return nil, scierr.NewStorageError("registry.GetRun", dir, err)
	}

	argsRaw, err := s.readMember(runID, filepath.Join(artifactsDir, argsFile))
	if err != nil {
		return nil, err
	}
	args := &config.ArgumentSet{}
	if err := decodeJSON(argsRaw, args); err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, argsFile, err)
	}

	encoderRaw, err := s.readMember(runID, filepath.Join(artifactsDir, labelEncoderFile))
	if err != nil {
		return nil, err
	}
	encoder, err := features.LoadLabelEncoder(bytes.NewReader(encoderRaw))
	if err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, labelEncoderFile, err)
	}

	vectorizerRaw, err := s.readMember(runID, filepath.Join(artifactsDir, vectorizerFile))
	if err != nil {
		return nil, err
	}
	vectorizer, err := features.LoadVectorizer(bytes.NewReader(vectorizerRaw))
	if err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, vectorizerFile, err)
	}

	performanceRaw, err := s.readMember(runID, filepath.Join(artifactsDir, performanceFile))
	if err != nil {
		return nil, err
	}
	performance := &metrics.Report{}
	if err := decodeJSON(performanceRaw, performance); err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, performanceFile, err)
	}

	// The model lives under its own registration path.
	modelRaw, err := s.readMember(runID, filepath.Join(modelDir, modelFile))
	if err != nil {
		return nil, err
	}
	model, err := classifier.Load(bytes.NewReader(modelRaw))
	if err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, modelFile, err)
	}

	bundle := &artifact.Bundle{
		Args:         args,
		LabelEncoder: encoder,
		Vectorizer:   vectorizer,
		Model:        model,
		Performance:  performance,
	}
	if err := bundle.Validate(); err != nil {
		return nil, scierr.NewCorruptArtifactError(runID, "bundle", err)
	}
	return bundle, nil
}

// Root returns the registry root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.root, runsDir, runID)
}

// readMember reads one bundle member file. A missing file means the bundle is
// incomplete (corrupt), any other I/O failure is a storage error.
func (s *Store) readMember(runID, rel string) ([]byte, error) {
	path := filepath.Join(s.runDir(runID), rel)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scierr.NewCorruptArtifactError(runID, filepath.Base(rel), err)
		}
		return nil, scierr.NewStorageError("registry.readMember", path, err)
	}
	return raw, nil
}

// stageBundle writes every bundle member into the staging directory using the
// durable on-disk layout.
func (s *Store) stageBundle(stage string, args *config.ArgumentSet, performance *metrics.Report, bundle *artifact.Bundle) error {
	artifacts := filepath.Join(stage, artifactsDir)
	model := filepath.Join(stage, modelDir)
	for _, dir := range []string{artifacts, model} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return scierr.NewStorageError("registry.stageBundle", dir, err)
		}
	}

	if err := args.Save(filepath.Join(artifacts, argsFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(artifacts, performanceFile), performance); err != nil {
		return err
	}
	if err := writeWith(filepath.Join(artifacts, labelEncoderFile), bundle.LabelEncoder.Save); err != nil {
		return err
	}
	if err := writeWith(filepath.Join(artifacts, vectorizerFile), bundle.Vectorizer.Save); err != nil {
		return err
	}
	return writeWith(filepath.Join(model, modelFile), bundle.Model.Save)
}

// WritePerformanceSnapshot writes a JSON mirror of a run's performance
// report, kept alongside the pointer for quick inspection without touching
// the registry.
func WritePerformanceSnapshot(path string, performance *metrics.Report) error {
	return writeJSON(path, performance)
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return scierr.Wrap(err, "registry: marshal "+filepath.Base(path))
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return scierr.NewStorageError("registry.writeJSON", path, err)
	}
	return nil
}

func decodeJSON(raw []byte, v interface{}) error {
	return json.Unmarshal(raw, v)
}

func writeWith(path string, save func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return scierr.NewStorageError("registry.writeWith", path, err)
	}
	if err := save(f); err != nil {
		f.Close()
		return scierr.Wrap(err, "registry: serialize "+filepath.Base(path))
	}
	if err := f.Close(); err != nil {
		return scierr.NewStorageError("registry.writeWith", path, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return scierr.NewStorageError("registry.copyTree", path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return scierr.NewStorageError("registry.copyTree", path, err)
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return scierr.NewStorageError("registry.copyTree", target, err)
			}
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return scierr.NewStorageError("registry.copyTree", path, err)
		}
		if err := os.WriteFile(target, raw, 0o644); err != nil {
			return scierr.NewStorageError("registry.copyTree", target, err)
		}
		return nil
	})
}
