package vmc

import (
	"math"
	"testing"
)

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// testPositions returns a small ensemble inside the physical domain.
func testPositions() []float64 {
	return []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0}
}
