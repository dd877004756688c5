package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/pkg/log"
)

// Pointer is the versioned current-run record: the run considered active for
// inference plus the time it was promoted. Readers always receive an explicit
// snapshot; there is no ambient mutable state.
type Pointer struct {
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentRun returns a snapshot of the current-run pointer. It fails with
// NotFoundError when no pointer has ever been set.
func (s *Store) CurrentRun() (Pointer, error) {
	path := filepath.Join(s.root, pointerFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pointer{}, scierr.NewNotFoundError("pointer", "")
		}
		return Pointer{}, scierr.NewStorageError("registry.CurrentRun", path, err)
	}
	var pointer Pointer
	if err := json.Unmarshal(raw, &pointer); err != nil {
		return Pointer{}, scierr.NewStorageError("registry.CurrentRun", path, err)
	}
	if pointer.RunID == "" {
		return Pointer{}, scierr.NewNotFoundError("pointer", "")
	}
	return pointer, nil
}

// SetCurrentRun promotes a run with compare-and-swap semantics: the update
// only applies when the stored pointer still names expectOld (empty for "no
// pointer set"). A concurrent writer that lost the race gets
// ErrPointerConflict instead of silently overwriting.
func (s *Store) SetCurrentRun(runID, expectOld string) (Pointer, error) {
	if runID == "" {
		return Pointer{}, scierr.NewValueError("registry.SetCurrentRun", "empty run identifier")
	}
	if _, err := os.Stat(s.runDir(runID)); err != nil {
		if os.IsNotExist(err) {
			return Pointer{}, scierr.NewNotFoundError("run", runID)
		}
		return Pointer{}, scierr.NewStorageError("registry.SetCurrentRun", runID, err)
	}

	var old string
	current, err := s.CurrentRun()
	switch {
	case err == nil:
		old = current.RunID
	case scierr.As(err, new(*scierr.NotFoundError)):
		old = ""
	default:
		return Pointer{}, err
	}
	if old != expectOld {
		return Pointer{}, scierr.Wrapf(scierr.ErrPointerConflict,
			"expected %q, found %q", expectOld, old)
	}

	pointer := Pointer{RunID: runID, UpdatedAt: time.Now().UTC()}
	raw, err := json.MarshalIndent(pointer, "", "  ")
	if err != nil {
		return Pointer{}, scierr.Wrap(err, "registry.SetCurrentRun: marshal")
	}
	raw = append(raw, '\n')

	// Write-then-rename so readers never observe a torn pointer.
	path := filepath.Join(s.root, pointerFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return Pointer{}, scierr.NewStorageError("registry.SetCurrentRun", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Pointer{}, scierr.NewStorageError("registry.SetCurrentRun", path, err)
	}

	s.logger.Info("current run updated",
		log.OperationKey, "set_current_run",
		log.RunIDKey, runID,
	)
	return pointer, nil
}
