package vmc

import "gonum.org/v1/gonum/stat"

// LocalEnergy evaluates the per-walker local energy
//
//	E_L(x) = -1/x - alpha^2/2 + alpha/x
//
// which is the exact closed form of H(psi)/psi for the trial wavefunction
// exp(-alpha*x) under the hydrogen-like radial Hamiltonian, not an
// approximation.
//
// Precondition: every x must be nonzero. The Markov chain guarantees this
// (proposals into x <= 0 are never accepted), so the hot loop does not
// re-check it.
func LocalEnergy(x []float64, alpha float64) []float64 {
	el := make([]float64, len(x))
	half := alpha * alpha / 2
	for i, xi := range x {
		el[i] = -1/xi - half + alpha/xi
	}
	return el
}

// MeanLocalEnergy returns the ensemble mean of the local energy, the
// variational estimate of the ground-state energy at the given alpha.
func MeanLocalEnergy(x []float64, alpha float64) float64 {
	return stat.Mean(LocalEnergy(x, alpha), nil)
}
