package vmc

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func validConfig() Config {
	return Config{
		EquilibrationSteps: 10,
		NumSteps:           5,
		NumWalkers:         20,
		Alpha:              0.8,
		LearningRate:       0.01,
		StepSize:           0.1,
		Seed:               1,
	}
}

func TestNewSamplerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero numsteps", mutate: func(c *Config) { c.NumSteps = 0 }},
		{name: "negative numsteps", mutate: func(c *Config) { c.NumSteps = -3 }},
		{name: "zero numwalkers", mutate: func(c *Config) { c.NumWalkers = 0 }},
		{name: "negative numwalkers", mutate: func(c *Config) { c.NumWalkers = -1 }},
		{name: "negative equilibration", mutate: func(c *Config) { c.EquilibrationSteps = -1 }},
		{name: "zero step size", mutate: func(c *Config) { c.StepSize = 0 }},
		{name: "negative step size", mutate: func(c *Config) { c.StepSize = -0.1 }},
		{name: "NaN step size", mutate: func(c *Config) { c.StepSize = math.NaN() }},
		{name: "alpha below range", mutate: func(c *Config) { c.Alpha = -1001 }},
		{name: "alpha above range", mutate: func(c *Config) { c.Alpha = 201 }},
		{name: "NaN alpha", mutate: func(c *Config) { c.Alpha = math.NaN() }},
		{name: "negative learning rate", mutate: func(c *Config) { c.LearningRate = -0.01 }},
		{name: "NaN learning rate", mutate: func(c *Config) { c.LearningRate = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			s, err := NewSampler(cfg)
			if err == nil {
				t.Fatal("expected an error, got none")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if s != nil {
				t.Fatal("expected nil sampler on validation failure")
			}
		})
	}
}

func TestRunZeroEquilibrationWarns(t *testing.T) {
	cfg := validConfig()
	cfg.EquilibrationSteps = 0

	s, err := NewSampler(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Warnings) == 0 {
		t.Fatal("expected a zero-equilibration warning")
	}
	if len(res.AlphaTrajectory) != cfg.NumSteps ||
		len(res.EnergyTrajectory) != cfg.NumSteps ||
		len(res.GradientTrajectory) != cfg.NumSteps {
		t.Fatal("trajectories must still have length numsteps")
	}
	// Without equilibration the ensemble never moves.
	assertFloat64SlicesEqual(t, res.FinalPositions, res.InitialPositions, 0)
}

func TestRunZeroLearningRateWarnsAndFreezesAlpha(t *testing.T) {
	cfg := validConfig()
	cfg.LearningRate = 0

	s, err := NewSampler(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Warnings) == 0 {
		t.Fatal("expected a frozen-alpha warning")
	}
	for i, a := range res.AlphaTrajectory {
		if a != cfg.Alpha {
			t.Fatalf("alpha moved at step %d: %v", i, a)
		}
	}
	if res.FinalAlpha != cfg.Alpha {
		t.Fatalf("final alpha %v, want %v", res.FinalAlpha, cfg.Alpha)
	}
}

func TestRunZeroWavefunctionIsFatal(t *testing.T) {
	// Scenario: one walker sits exactly at x = 0 where the wavefunction
	// vanishes, and proposals carry zero displacement. The first sweep must
	// abort with a division-by-zero error.
	cfg := Config{
		EquilibrationSteps: 1,
		NumSteps:           1,
		NumWalkers:         3,
		Alpha:              1.0,
		LearningRate:       0.01,
		StepSize:           0.1,
	}
	s, err := NewSampler(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.drawInitial = func(n int) []float64 { return []float64{2.5, 3.0, 0.0} }
	s.drawDisplacement = func() float64 { return 0 }

	res, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error, got none")
	}
	if !errors.Is(err, ErrZeroWavefunction) {
		t.Fatalf("expected ErrZeroWavefunction, got %v", err)
	}
	if res != nil {
		t.Fatal("no partial results may be returned on a fatal sweep error")
	}
}

func TestRunConvergesTowardOptimum(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running chain")
	}

	cfg := Config{
		EquilibrationSteps: 100,
		NumSteps:           50,
		NumWalkers:         500,
		Alpha:              0.8,
		LearningRate:       0.01,
		StepSize:           0.1,
		Seed:               42,
	}
	s, err := NewSampler(cfg, WithMetrics(NewMetrics(prometheus.NewRegistry())))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.FinalPositions) != cfg.NumWalkers {
		t.Fatalf("final positions length %d, want %d", len(res.FinalPositions), cfg.NumWalkers)
	}
	for i, x := range res.FinalPositions {
		if x <= 0 {
			t.Fatalf("walker %d ended at non-positive position %v", i, x)
		}
	}
	if math.IsNaN(res.FinalAlpha) || math.IsInf(res.FinalAlpha, 0) {
		t.Fatalf("final alpha is not finite: %v", res.FinalAlpha)
	}
	first := res.AlphaTrajectory[0]
	last := res.AlphaTrajectory[len(res.AlphaTrajectory)-1]
	if math.Abs(last-first) <= 0.01 {
		t.Fatalf("alpha barely moved: first %v, last %v", first, last)
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	cfg := validConfig()
	cfg.Seed = 7

	run := func() *Result {
		t.Helper()
		s, err := NewSampler(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}

	a, b := run(), run()
	assertFloat64SlicesEqual(t, a.InitialPositions, b.InitialPositions, 0)
	assertFloat64SlicesEqual(t, a.FinalPositions, b.FinalPositions, 0)
	assertFloat64SlicesEqual(t, a.AlphaTrajectory, b.AlphaTrajectory, 0)
	assertFloat64SlicesEqual(t, a.EnergyTrajectory, b.EnergyTrajectory, 0)
	assertFloat64SlicesEqual(t, a.GradientTrajectory, b.GradientTrajectory, 0)
	if a.FinalAlpha != b.FinalAlpha {
		t.Fatalf("final alpha differs: %v vs %v", a.FinalAlpha, b.FinalAlpha)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	s, err := NewSampler(validConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx)
	if err == nil {
		t.Fatal("expected an error, got none")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on cancellation")
	}
}

func TestRunReportsProgress(t *testing.T) {
	cfg := validConfig()
	var steps []int
	s, err := NewSampler(cfg, WithProgress(func(step int, alpha, energy float64) {
		steps = append(steps, step)
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(steps) != cfg.NumSteps {
		t.Fatalf("progress called %d times, want %d", len(steps), cfg.NumSteps)
	}
	for i, step := range steps {
		if step != i {
			t.Fatalf("progress step %d reported as %d", i, step)
		}
	}
}
