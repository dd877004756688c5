// Package errors provides the structured error taxonomy for the experiment
// pipeline. Every error category an operator has to distinguish (bad
// configuration, a failed search, a missing run, a corrupt artifact bundle, a
// storage transport failure) gets its own type with a constructor that attaches
// a stack trace, so callers can branch with errors.As and logs can carry the
// structured fields.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("tagifai-warning: %v\n", w)
	}
	// zerolog sink, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the process-wide warning handler.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc routes warnings through a zerolog-backed sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a non-fatal warning. When a zerolog sink is registered the
// warning is logged structured; otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// UndefinedMetricWarning is raised when an evaluation metric is ill-defined,
// e.g. precision for a class that received no predictions.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // value substituted under this condition
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %g due to %s", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// ConfigurationError reports a malformed or missing argument-set value, or an
// invalid engine parameter such as a non-positive trial count.
type ConfigurationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tagifai: invalid configuration for '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(param, reason string, value interface{}) error {
	err := &ConfigurationError{Param: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// OptimizationFailureError reports a hyperparameter search that produced no
// usable configuration: every trial was pruned or failed.
type OptimizationFailureError struct {
	Attempts  int
	Completed int
	Pruned    int
	Failed    int
	Reason    string
}

func (e *OptimizationFailureError) Error() string {
	return fmt.Sprintf("tagifai: optimization failed after %d trials (%d completed, %d pruned, %d failed): %s",
		e.Attempts, e.Completed, e.Pruned, e.Failed, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *OptimizationFailureError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("attempts", e.Attempts).
		Int("completed", e.Completed).
		Int("pruned", e.Pruned).
		Int("failed", e.Failed).
		Str("reason", e.Reason).
		Str("type", "OptimizationFailureError")
}

// NewOptimizationFailureError creates an OptimizationFailureError with a
// stack trace.
func NewOptimizationFailureError(attempts, completed, pruned, failed int, reason string) error {
	err := &OptimizationFailureError{
		Attempts:  attempts,
		Completed: completed,
		Pruned:    pruned,
		Failed:    failed,
		Reason:    reason,
	}
	return errors.WithStack(err)
}

// NotFoundError reports an unresolvable run identifier or current-run pointer.
// Kind is "run" or "pointer"; ID is empty when no pointer was set at all.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("tagifai: no %s set", e.Kind)
	}
	return fmt.Sprintf("tagifai: %s %q not found", e.Kind, e.ID)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("kind", e.Kind).
		Str("id", e.ID).
		Str("type", "NotFoundError")
}

// NewNotFoundError creates a NotFoundError with a stack trace.
func NewNotFoundError(kind, id string) error {
	err := &NotFoundError{Kind: kind, ID: id}
	return errors.WithStack(err)
}

// CorruptArtifactError reports an artifact bundle member that exists in the
// store but cannot be deserialized, or a bundle missing one of its five
// members. It is distinct from NotFoundError so operators know whether to
// re-run training or investigate storage.
type CorruptArtifactError struct {
	RunID  string
	Member string
	Err    error
}

func (e *CorruptArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tagifai: run %q: corrupt artifact %q: %v", e.RunID, e.Member, e.Err)
	}
	return fmt.Sprintf("tagifai: run %q: corrupt artifact %q", e.RunID, e.Member)
}

func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *CorruptArtifactError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("run_id", e.RunID).
		Str("member", e.Member).
		Str("type", "CorruptArtifactError")
}

// NewCorruptArtifactError creates a CorruptArtifactError with a stack trace.
func NewCorruptArtifactError(runID, member string, err error) error {
	corruptErr := &CorruptArtifactError{RunID: runID, Member: member, Err: err}
	return errors.WithStack(corruptErr)
}

// StorageError reports a persistence or retrieval transport failure (I/O,
// filesystem, staging) as opposed to a decode failure.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("tagifai: %s: storage failure at %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *StorageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "StorageError")
}

// NewStorageError creates a StorageError with a stack trace.
func NewStorageError(op, path string, err error) error {
	storageErr := &StorageError{Op: op, Path: path, Err: err}
	return errors.WithStack(storageErr)
}

// NotFittedError reports a Predict or Transform call on an unfitted
// transformer or model.
type NotFittedError struct {
	Name   string
	Method string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tagifai: %s: not fitted yet. Call Fit() before using %s()", e.Name, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("name", e.Name).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(name, method string) error {
	err := &NotFittedError{Name: name, Method: method}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation,
// e.g. an empty vector passed to a metric.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tagifai: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DimensionError reports mismatched input dimensions.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("tagifai: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty dataset or matrix is supplied.
	ErrEmptyData = New("empty data")

	// ErrPointerConflict is returned when a compare-and-swap update of the
	// current-run pointer observes a different run than the writer expected.
	ErrPointerConflict = New("current-run pointer changed concurrently")
)
