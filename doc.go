// Package tagifai implements the lifecycle of a supervised text-classification
// experiment: a bounded hyperparameter search with median pruning, training a
// final model under the tuned configuration, recording each completed run as an
// immutable, self-describing record (arguments, metrics, artifacts), and later
// resolving a run identifier back into a usable inference bundle.
//
// The repository is organized as a set of small domain packages:
//
//   - config: the typed argument set and the enumerated tunable schema
//   - data: labeled dataset loading and deterministic splits
//   - features: label encoding and TF-IDF vectorization
//   - classifier: the SGD softmax classifier behind a capability interface
//   - metrics: classification reports (precision/recall/f1)
//   - train: the trial evaluator producing artifact bundles
//   - optimize: the study engine (samplers, median pruner, trial ranking)
//   - registry: the file-backed run store and the versioned current-run pointer
//   - artifact: the five-member bundle that round-trips through the registry
//   - predict: run resolution and pure batch prediction
//
// Trials run strictly sequentially in one process; runs are single-machine,
// single-tenant records.
package tagifai
