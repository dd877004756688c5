// Command tagifai is the pipeline CLI: ELT the raw data, optimize
// hyperparameters, train and register a run, and predict tags for text.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidino/mlops-tagifai/artifact"
	"github.com/aidino/mlops-tagifai/config"
	"github.com/aidino/mlops-tagifai/data"
	"github.com/aidino/mlops-tagifai/optimize"
	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
	"github.com/aidino/mlops-tagifai/pkg/log"
	"github.com/aidino/mlops-tagifai/predict"
	"github.com/aidino/mlops-tagifai/registry"
	"github.com/aidino/mlops-tagifai/train"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)
	root := &cobra.Command{
		Use:           "tagifai",
		Short:         "Supervised text-classification experiment pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetupLogger(logLevel, log.Format(logFormat))
			log.SetupWarnings(os.Stderr)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", string(log.FormatConsole), "log format: console or json")

	root.AddCommand(
		newELTCommand(),
		newOptimizeCommand(),
		newTrainCommand(),
		newPredictCommand(),
	)
	return root
}

func newELTCommand() *cobra.Command {
	var projectsPath, tagsPath, dataDir string
	cmd := &cobra.Command{
		Use:   "elt-data",
		Short: "Extract, load and transform the raw data assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			labeled := filepath.Join(dataDir, "labeled_projects.csv")
			holdout := filepath.Join(dataDir, "test_labeled_projects.csv")
			if err := data.ELT(projectsPath, tagsPath, labeled, holdout); err != nil {
				return err
			}
			slog.Info("saved labeled data", "labeled", labeled, "holdout", holdout)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectsPath, "projects", "data/projects.csv", "raw projects table")
	cmd.Flags().StringVar(&tagsPath, "tags", "data/tags.csv", "raw tags table")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "output directory")
	return cmd
}

func newOptimizeCommand() *cobra.Command {
	var (
		argsFp        string
		dataPath      string
		studyName     string
		numTrials     int
		startupTrials int
		warmupSteps   int
		seed          int64
		historyPath   string
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run a hyperparameter study and write the tuned args back",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := data.LoadLabeledCSV(dataPath)
			if err != nil {
				return err
			}
			base, err := loadOrDefaultArgs(argsFp)
			if err != nil {
				return err
			}

			study, err := optimize.NewStudy(studyName, config.DefaultSearchSpace(),
				optimize.WithPruner(optimize.NewMedianPruner(startupTrials, warmupSteps)),
				optimize.WithRankingAttr("f1"),
				optimize.WithSeed(seed),
			)
			if err != nil {
				return err
			}
			tuned, err := study.Optimize(cmd.Context(), base, train.MakeObjective(ds, base), numTrials)
			if err != nil {
				return err
			}

			if err := tuned.Save(argsFp); err != nil {
				return err
			}
			best, err := study.BestTrial()
			if err != nil {
				return err
			}
			slog.Info("study finished",
				log.TrialIndexKey, best.Index(),
				log.ObjectiveKey, best.Value(),
				"args_fp", argsFp,
			)
			if historyPath != "" {
				if err := study.PlotHistory(historyPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argsFp, "args-fp", "config/args.json", "argument set file")
	cmd.Flags().StringVar(&dataPath, "data", "data/labeled_projects.csv", "labeled dataset")
	cmd.Flags().StringVar(&studyName, "study-name", "optimization", "study name")
	cmd.Flags().IntVar(&numTrials, "num-trials", 20, "number of trials")
	cmd.Flags().IntVar(&startupTrials, "startup-trials", 5, "completed trials required before pruning")
	cmd.Flags().IntVar(&warmupSteps, "warmup-steps", 5, "intermediate reports required before pruning")
	cmd.Flags().Int64Var(&seed, "seed", 1234, "sampler seed")
	cmd.Flags().StringVar(&historyPath, "history-plot", "", "optional optimization-history chart path (.png)")
	return cmd
}

func newTrainCommand() *cobra.Command {
	var (
		argsFp    string
		dataPath  string
		storeDir  string
		configDir string
		testRun   bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model and register the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := data.LoadLabeledCSV(dataPath)
			if err != nil {
				return err
			}
			trainArgs, err := loadOrDefaultArgs(argsFp)
			if err != nil {
				return err
			}

			bundle, err := train.Train(ctx, ds, trainArgs, nil)
			if err != nil {
				return err
			}

			store, err := registry.NewStore(storeDir)
			if err != nil {
				return err
			}
			runID, err := store.CreateRun(ctx, bundle.Args, bundle.Performance,
				func() (*artifact.Bundle, error) { return bundle, nil })
			if err != nil {
				return err
			}
			slog.Info("run registered",
				log.RunIDKey, runID,
				log.F1Key, bundle.Performance.Overall.F1,
			)

			if testRun {
				return nil
			}

			// Promote the run and mirror its performance for quick inspection.
			expectOld := ""
			if current, err := store.CurrentRun(); err == nil {
				expectOld = current.RunID
			} else if !scierr.As(err, new(*scierr.NotFoundError)) {
				return err
			}
			if _, err := store.SetCurrentRun(runID, expectOld); err != nil {
				return err
			}
			snapshot := filepath.Join(configDir, "performance.json")
			return registry.WritePerformanceSnapshot(snapshot, bundle.Performance)
		},
	}
	cmd.Flags().StringVar(&argsFp, "args-fp", "config/args.json", "argument set file")
	cmd.Flags().StringVar(&dataPath, "data", "data/labeled_projects.csv", "labeled dataset")
	cmd.Flags().StringVar(&storeDir, "store-dir", "stores/model", "registry root directory")
	cmd.Flags().StringVar(&configDir, "config-dir", "config", "directory for the performance snapshot")
	cmd.Flags().BoolVar(&testRun, "test-run", false, "do not promote the run or write snapshots")
	return cmd
}

func newPredictCommand() *cobra.Command {
	var (
		text     string
		runID    string
		storeDir string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the tag for a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := registry.NewStore(storeDir)
			if err != nil {
				return err
			}
			bundle, err := predict.NewLoader(store).Load(cmd.Context(), runID)
			if err != nil {
				return err
			}
			predictions, err := predict.Predict([]string{text}, bundle)
			if err != nil {
				return err
			}
			for _, p := range predictions {
				fmt.Printf("%s\t%s\t%.4f\n", p.InputText, p.PredictedTag, p.PredictedProbability)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "input text")
	cmd.Flags().StringVar(&runID, "run-id", "", "run to load; defaults to the current-run pointer")
	cmd.Flags().StringVar(&storeDir, "store-dir", "stores/model", "registry root directory")
	return cmd
}

// loadOrDefaultArgs loads the argument set, falling back to (and persisting)
// the defaults when the file does not exist yet.
func loadOrDefaultArgs(path string) (*config.ArgumentSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaults := config.DefaultArgumentSet()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, scierr.NewStorageError("loadOrDefaultArgs", path, err)
		}
		if err := defaults.Save(path); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	return config.LoadArgumentSet(path)
}
