// Package stats holds the numeric helpers shared by the analyzers.
package stats

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum adds values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// StdDev returns the population standard deviation of values around mean
// (divides by N, not N-1). The caller supplies mean so the same helper can
// measure spread around a reference other than the sample's own average.
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	return math.Sqrt(squares / float64(len(values)))
}

// SafeDivide returns numerator/denominator, or fallback when denominator is zero.
func SafeDivide(numerator, denominator, fallback float64) float64 {
	if denominator == 0 {
		return fallback
	}
	return numerator / denominator
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
