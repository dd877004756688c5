// Standard attribute keys for experiment logging. Using these keys across the
// pipeline keeps run and trial records filterable in log analysis.

package log

// Run and trial context.
const (
	// RunIDKey identifies a persisted run in the registry.
	RunIDKey = "run.id"

	// ExperimentKey names the experiment family a run belongs to.
	ExperimentKey = "experiment.name"

	// TrialIndexKey is the ordinal index of a trial within a study.
	TrialIndexKey = "trial.index"

	// TrialStateKey is the terminal state of a trial: "completed", "pruned"
	// or "failed".
	TrialStateKey = "trial.state"

	// TrialStepKey is the intermediate report step within a trial.
	TrialStepKey = "trial.step"

	// ObjectiveKey is the raw objective value of a completed trial.
	ObjectiveKey = "trial.objective"
)

// Operation context.
const (
	// OperationKey names the pipeline operation being performed.
	// Standard values: "optimize", "train", "create_run", "get_run", "predict".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of rows involved in an operation.
	SamplesKey = "data.samples"

	// FeaturesKey is the vocabulary / feature dimension.
	FeaturesKey = "data.features"

	// ClassesKey is the number of target classes.
	ClassesKey = "data.classes"
)

// Performance metrics.
const (
	PrecisionKey = "metric.precision"
	RecallKey    = "metric.recall"
	F1Key        = "metric.f1"
	LossKey      = "metric.loss"

	// DurationMsKey is the wall-clock duration of an operation in
	// milliseconds.
	DurationMsKey = "duration.ms"
)
