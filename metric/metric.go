// Package metric provides summary statistics over simulation output.
package metric

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Min returns the smallest value and its index. Returns (-1, 0) for an
// empty slice.
func Min(values []float64) (int, float64) {
	if len(values) == 0 {
		return -1, 0
	}
	idx := floats.MinIdx(values)
	return idx, values[idx]
}

// FirstBelow returns the index of the first value strictly below the
// threshold, or -1 when no value qualifies.
func FirstBelow(values []float64, threshold float64) int {
	for i, v := range values {
		if v < threshold {
			return i
		}
	}
	return -1
}

// SuggestedMax picks a y-axis upper bound covering both the series and
// floor, rounded up to the next multiple of step.
func SuggestedMax(values []float64, floor, step float64) float64 {
	max := floor
	if len(values) > 0 {
		if m := floats.Max(values); m > max {
			max = m
		}
	}

	if step <= 0 {
		return max
	}
	return math.Ceil(max/step) * step
}
