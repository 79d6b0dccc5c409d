// Package floatutils implements utility functions for floats
package floatutils

import "math"

// Clip clips a float to within [min, max]
func Clip(value, min, max float64) float64 {
	if min > max {
		panic("clip: min > max")
	}
	return math.Min(math.Max(value, min), max)
}

// Max returns the maximum value in a slice together with the indices
// at which the maximum value occurs. The returned indices are in
// ascending order.
func Max(values ...float64) (max float64, indices []int) {
	if len(values) == 0 {
		panic("max: no values given")
	}

	max = math.Inf(-1)
	for i, value := range values {
		if value > max {
			max = value
			indices = indices[:0]
			indices = append(indices, i)
		} else if value == max {
			indices = append(indices, i)
		}
	}
	return max, indices
}

// ArgMax returns the first index at which the maximum value in the
// slice occurs. Ties are broken by the lowest index.
func ArgMax(values ...float64) int {
	_, indices := Max(values...)
	return indices[0]
}

// Equal returns whether two float slices are element-wise equal
func Equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
