package spectrum

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Detrend returns a copy of samples with their arithmetic mean removed.
func Detrend(samples []float64) []float64 {
	dst := make([]float64, len(samples))
	copy(dst, samples)
	DetrendInPlace(dst)
	return dst
}

// DetrendInPlace subtracts the arithmetic mean of samples from every element.
func DetrendInPlace(samples []float64) {
	if len(samples) == 0 {
		return
	}
	floats.AddConst(-stat.Mean(samples, nil), samples)
}
