package optimize

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// PlotHistory renders the objective value of every completed trial against
// its index and writes the chart to path (format chosen by extension, e.g.
// .png). Useful as a quick visual check that the search converged.
func (s *Study) PlotHistory(path string) error {
	completed := s.completedTrials()
	if len(completed) == 0 {
		return scierr.Wrap(scierr.ErrEmptyData, "optimize.PlotHistory: no completed trials")
	}

	points := make(plotter.XYs, len(completed))
	for i, trial := range completed {
		points[i].X = float64(trial.index)
		points[i].Y = trial.value
	}

	p := plot.New()
	p.Title.Text = "Optimization history: " + s.name
	p.X.Label.Text = "trial"
	p.Y.Label.Text = "objective"

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return scierr.Wrap(err, "optimize.PlotHistory")
	}
	p.Add(line, scatter, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return scierr.NewStorageError("optimize.PlotHistory", path, err)
	}
	return nil
}
