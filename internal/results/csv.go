// Package results persists completed runs: CSV series for downstream
// analysis and an optional SQLite archive for comparing runs.
package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/vmc"
)

const (
	fnamePositions = "final_positions.csv"
	fnameAlpha     = "alpha_evolution.csv"
	fnameEnergy    = "energy_evolution.csv"
	fnameGradient  = "gradient_evolution.csv"
)

// WriteCSV writes the run's final positions and the three trajectories into
// dir, one single-column CSV per series. The directory is created if needed.
func WriteCSV(dir string, res *vmc.Result) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	series := []struct {
		fname  string
		header string
		values []float64
	}{
		{fnamePositions, "position", res.FinalPositions},
		{fnameAlpha, "alpha", res.AlphaTrajectory},
		{fnameEnergy, "energy", res.EnergyTrajectory},
		{fnameGradient, "gradient", res.GradientTrajectory},
	}
	for _, s := range series {
		if err := writeSeries(filepath.Join(dir, s.fname), s.header, s.values); err != nil {
			return errors.Wrap(err, s.fname)
		}
	}
	return nil
}

func writeSeries(path, header string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{header}); err != nil {
		return errors.Wrap(err, "")
	}
	for _, v := range values {
		if err := w.Write([]string{strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return errors.Wrap(err, "")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(f.Close(), "")
}
