// Package plot renders the run's position distribution and trajectories as
// PNG images.
package plot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	histogramBins = 200
	plotWidth     = 6 * vg.Inch
	plotHeight    = 4 * vg.Inch
)

// PositionHistogram renders a normalized histogram of the final walker
// positions. With alpha near its optimum the shape approaches the squared
// hydrogen ground-state wavefunction.
func PositionHistogram(positions []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Histogram of Final Positions"
	p.X.Label.Text = "Position"
	p.Y.Label.Text = "Density"
	p.Add(plotter.NewGrid())

	h, err := plotter.NewHist(plotter.Values(positions), histogramBins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	h.Normalize(1)
	p.Add(h)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Trajectory renders one per-step series (alpha or energy) as a line chart.
func Trajectory(values []float64, label, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Evolution of %s", label)
	p.X.Label.Text = "Step"
	p.Y.Label.Text = label
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
