package vmc

import "gonum.org/v1/gonum/stat"

// EnergyGradient estimates dE/dalpha over the equilibrated ensemble using the
// covariance identity
//
//	dE/dalpha = 2 * ( <E_L * L> - <E_L> * <L> )
//
// where L = d(log psi)/dalpha = -x for the exponential trial form. The
// covariance formulation is unbiased and has lower variance than a
// finite-difference estimate; it must stay the population covariance over the
// ensemble (divide by n, not n-1), scaled by 2.
func EnergyGradient(x []float64, alpha float64) float64 {
	el := LocalEnergy(x, alpha)
	logDeriv := make([]float64, len(x))
	prod := make([]float64, len(x))
	for i, xi := range x {
		logDeriv[i] = -xi
		prod[i] = el[i] * logDeriv[i]
	}
	return 2 * (stat.Mean(prod, nil) - stat.Mean(el, nil)*stat.Mean(logDeriv, nil))
}
