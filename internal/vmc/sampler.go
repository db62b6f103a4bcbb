package vmc

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

// Walkers are initialized uniformly in [initPosMin, initPosMax), well inside
// the physical domain so the first acceptance ratio is always defined.
const (
	initPosMin = 2.0
	initPosMax = 3.0
)

// Config holds the inputs of one sampler run. All values are immutable for
// the duration of the run.
type Config struct {
	// EquilibrationSteps is the number of thermalization sweeps performed
	// before each measurement. Must be non-negative; zero is legal but the
	// ensemble never relaxes toward the target distribution.
	EquilibrationSteps int
	// NumSteps is the number of outer measurement steps. Must be positive.
	NumSteps int
	// NumWalkers is the ensemble size. Must be positive.
	NumWalkers int
	// Alpha is the initial variational parameter. Must be finite and within
	// [AlphaMin, AlphaMax].
	Alpha float64
	// LearningRate scales the gradient-descent update of alpha. Must be
	// non-negative; zero freezes alpha for the whole run.
	LearningRate float64
	// StepSize is the standard deviation of the Gaussian proposal
	// displacement. Must be positive.
	StepSize float64
	// Seed seeds the run's single random stream. Identical seeds and inputs
	// reproduce bit-identical results.
	Seed uint64
}

// Result is what a completed run returns. Trajectories are indexed by outer
// measurement step and all have length Config.NumSteps.
type Result struct {
	FinalPositions     []float64
	FinalAlpha         float64
	AlphaTrajectory    []float64
	EnergyTrajectory   []float64
	GradientTrajectory []float64
	InitialPositions   []float64
	// Warnings carries non-fatal advisories (zero equilibration, frozen
	// alpha). The run still completed and the trajectories are valid.
	Warnings []string
}

// ProgressFunc is invoked once per completed outer step, after the
// trajectories for that step are written. It must not block for long; the
// chain does not advance until it returns.
type ProgressFunc func(step int, alpha, energy float64)

// Sampler owns the walker ensemble and the variational parameter for the
// duration of one run. It is not safe for concurrent use; outer steps are
// inherently sequential because step j depends on step j-1.
type Sampler struct {
	cfg     Config
	opt     *Optimizer
	logger  *zap.Logger
	metrics *Metrics
	onStep  ProgressFunc

	// Random draws, all fed by one seedable stream. Kept as closures so
	// package tests can force exact displacement and acceptance sequences.
	drawInitial      func(n int) []float64
	drawDisplacement func() float64
	drawUniform      func() float64
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Sampler) { s.metrics = m }
}

// WithProgress attaches a per-step progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Sampler) { s.onStep = fn }
}

// NewSampler validates cfg eagerly, before any random state exists, and
// returns a sampler ready to run. Validation failures wrap ErrInvalidInput.
func NewSampler(cfg Config, opts ...Option) (*Sampler, error) {
	if cfg.NumSteps <= 0 {
		return nil, invalidf("numsteps must be a positive integer, got %d", cfg.NumSteps).
			WithComponent("sampler").WithOperation("NewSampler")
	}
	if cfg.NumWalkers <= 0 {
		return nil, invalidf("numwalkers must be a positive integer, got %d", cfg.NumWalkers).
			WithComponent("sampler").WithOperation("NewSampler")
	}
	if cfg.EquilibrationSteps < 0 {
		return nil, invalidf("equilibration steps must be non-negative, got %d", cfg.EquilibrationSteps).
			WithComponent("sampler").WithOperation("NewSampler")
	}
	if math.IsNaN(cfg.StepSize) || math.IsInf(cfg.StepSize, 0) || cfg.StepSize <= 0 {
		return nil, invalidf("step size must be positive, got %v", cfg.StepSize).
			WithComponent("sampler").WithOperation("NewSampler")
	}
	if err := CheckAlpha(cfg.Alpha); err != nil {
		return nil, err
	}
	opt, err := NewOptimizer(cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	s := &Sampler{
		cfg:    cfg,
		opt:    opt,
		logger: zap.NewNop(),
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed)
	initial := distuv.Uniform{Min: initPosMin, Max: initPosMax, Src: src}
	displacement := distuv.Normal{Mu: 0, Sigma: cfg.StepSize, Src: src}
	acceptance := distuv.Uniform{Min: 0, Max: 1, Src: src}

	s.drawInitial = func(n int) []float64 {
		positions := make([]float64, n)
		for i := range positions {
			positions[i] = initial.Rand()
		}
		return positions
	}
	s.drawDisplacement = displacement.Rand
	s.drawUniform = acceptance.Rand

	for _, apply := range opts {
		apply(s)
	}
	return s, nil
}

// Run executes the full chain: initialize the ensemble, then for each outer
// step equilibrate, optimize alpha, and record the trajectories. It returns
// the final ensemble and trajectories, or the first fatal error with no
// partial results. Cancellation is checked between outer steps only, so a
// cancelled run never leaves a half-measured step.
func (s *Sampler) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	res := &Result{
		AlphaTrajectory:    make([]float64, s.cfg.NumSteps),
		EnergyTrajectory:   make([]float64, s.cfg.NumSteps),
		GradientTrajectory: make([]float64, s.cfg.NumSteps),
	}
	if s.cfg.EquilibrationSteps == 0 {
		const msg = "equilibration steps is 0; the ensemble will not thermalize before measurement"
		s.logger.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}
	if s.opt.Frozen() {
		const msg = "learning rate is 0; alpha will not be optimized this run"
		s.logger.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}

	positions := s.drawInitial(s.cfg.NumWalkers)
	res.InitialPositions = append([]float64(nil), positions...)
	alpha := s.cfg.Alpha

	s.logger.Info("starting run",
		zap.Int("numwalkers", s.cfg.NumWalkers),
		zap.Int("numsteps", s.cfg.NumSteps),
		zap.Int("equilibration_steps", s.cfg.EquilibrationSteps),
		zap.Float64("alpha", alpha),
		zap.Float64("learning_rate", s.cfg.LearningRate),
		zap.Float64("step_size", s.cfg.StepSize),
		zap.Uint64("seed", s.cfg.Seed),
	)

	for j := 0; j < s.cfg.NumSteps; j++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err, "run cancelled").
				WithComponent("sampler").WithOperation("Run")
		}

		for i := 0; i < s.cfg.EquilibrationSteps; i++ {
			if err := s.sweep(positions, alpha); err != nil {
				return nil, err
			}
		}

		var gradient float64
		alpha, gradient = s.opt.Step(positions, alpha)
		res.AlphaTrajectory[j] = alpha
		res.GradientTrajectory[j] = gradient

		energy := MeanLocalEnergy(positions, alpha)
		res.EnergyTrajectory[j] = energy

		s.metrics.observeStep(alpha, energy)
		if s.onStep != nil {
			s.onStep(j, alpha, energy)
		}
		s.logger.Debug("measurement step",
			zap.Int("step", j),
			zap.Float64("alpha", alpha),
			zap.Float64("energy", energy),
			zap.Float64("gradient", gradient),
		)
	}

	res.FinalPositions = positions
	res.FinalAlpha = alpha

	elapsed := time.Since(start)
	s.metrics.observeRun(elapsed.Seconds())
	s.logger.Info("run complete",
		zap.Float64("final_alpha", alpha),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

// sweep performs one Metropolis-Hastings update of every walker in place.
// Walkers are independent: each gets its own Gaussian displacement and its
// own uniform acceptance draw, and never sees another walker's state.
func (s *Sampler) sweep(positions []float64, alpha float64) error {
	proposed := make([]float64, len(positions))
	for i, xi := range positions {
		proposed[i] = xi + s.drawDisplacement()
	}

	psiCur, err := TrialWavefunction(positions, alpha)
	if err != nil {
		return err
	}
	psiNew, err := TrialWavefunction(proposed, alpha)
	if err != nil {
		return err
	}

	// A zero denominator means alpha or an earlier accepted move pushed the
	// chain somewhere the wavefunction vanishes. That is unrecoverable and
	// must not be papered over, so fail before drawing any acceptance.
	for _, psi := range psiCur {
		if psi == 0 {
			return WrapError(ErrZeroWavefunction, "current-position wavefunction is zero").
				WithComponent("sampler").WithOperation("sweep")
		}
	}

	accepted := 0
	for i := range positions {
		p := psiNew[i] / psiCur[i]
		if p > s.drawUniform() {
			positions[i] = proposed[i]
			accepted++
		}
	}
	s.metrics.observeSweep(accepted, len(positions)-accepted)
	return nil
}
