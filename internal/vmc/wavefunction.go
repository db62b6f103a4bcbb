// Package vmc implements a Variational Monte Carlo sampler for the ground
// state of the hydrogen-like radial model. An ensemble of walkers is evolved
// by per-walker Metropolis-Hastings moves under the trial wavefunction
// exp(-alpha*x), while the single variational parameter alpha is tuned on the
// fly by stochastic gradient descent on the sampled energy.
package vmc

import "math"

// Numerically safe range for the variational parameter. Outside this range
// the exponential in the trial wavefunction silently saturates to 0 or +Inf,
// which corrupts the acceptance ratio instead of failing loudly.
const (
	AlphaMin = -1000.0
	AlphaMax = 200.0
)

// CheckAlpha validates the variational parameter before it reaches any
// exponential. Non-finite values and values outside [AlphaMin, AlphaMax] are
// rejected with ErrInvalidInput.
func CheckAlpha(alpha float64) error {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return invalidf("alpha must be a finite real number, got %v", alpha).
			WithComponent("wavefunction").WithOperation("CheckAlpha")
	}
	if alpha < AlphaMin {
		return invalidf("alpha %v below %v causes numerical instability", alpha, AlphaMin).
			WithComponent("wavefunction").WithOperation("CheckAlpha")
	}
	if alpha > AlphaMax {
		return invalidf("alpha %v above %v causes numerical instability", alpha, AlphaMax).
			WithComponent("wavefunction").WithOperation("CheckAlpha")
	}
	return nil
}

// TrialWavefunction evaluates the unnormalized trial wavefunction at each
// position: exp(-alpha*x) for x > 0 and exactly 0 otherwise. The zero branch
// models the wavefunction vanishing outside the physical radial domain; it
// applies at x == 0 as well and must not be smoothed over.
func TrialWavefunction(x []float64, alpha float64) ([]float64, error) {
	if err := CheckAlpha(alpha); err != nil {
		return nil, err
	}
	psi := make([]float64, len(x))
	for i, xi := range x {
		if xi > 0 {
			psi[i] = math.Exp(-alpha * xi)
		}
	}
	return psi, nil
}
