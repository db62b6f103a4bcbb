package vmc

import "math"

// Optimizer applies one gradient-descent step per outer measurement step to
// the variational parameter.
type Optimizer struct {
	learningRate float64
}

// NewOptimizer validates the learning rate and returns an optimizer.
// Negative rates are rejected: they turn descent into ascent and drive alpha
// away from the minimum. A zero rate is accepted but freezes alpha; callers
// should surface that as an advisory rather than an error.
func NewOptimizer(learningRate float64) (*Optimizer, error) {
	if math.IsNaN(learningRate) || math.IsInf(learningRate, 0) {
		return nil, invalidf("learning rate must be a finite real number, got %v", learningRate).
			WithComponent("optimizer").WithOperation("NewOptimizer")
	}
	if learningRate < 0 {
		return nil, invalidf("learning rate must be non-negative, got %v", learningRate).
			WithComponent("optimizer").WithOperation("NewOptimizer")
	}
	return &Optimizer{learningRate: learningRate}, nil
}

// LearningRate returns the configured learning rate.
func (o *Optimizer) LearningRate() float64 {
	return o.learningRate
}

// Frozen reports whether the learning rate is zero, i.e. Step returns alpha
// unchanged.
func (o *Optimizer) Frozen() bool {
	return o.learningRate == 0
}

// Step computes the energy gradient at the current alpha and returns the
// descended parameter along with the gradient:
//
//	newAlpha = alpha - learningRate * dE/dalpha
//
// The caller owns alpha; Step mutates nothing.
func (o *Optimizer) Step(x []float64, alpha float64) (newAlpha, gradient float64) {
	gradient = EnergyGradient(x, alpha)
	return alpha - o.learningRate*gradient, gradient
}
