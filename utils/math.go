package utils

import "math"

// Clamp returns value limited to the closed range [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// ScaleToUnit maps value from the range [lo, hi] onto [-1, 1]. Values outside the range are
// clamped. A degenerate range maps everything to 0.
func ScaleToUnit(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return Clamp(2*(value-lo)/(hi-lo)-1, -1, 1)
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
