package spectrum

import (
	"math"
	"math/rand"
)

// sine returns amplitude*sin(2*pi*freq*t) sampled every dt seconds.
func sine(freq, dt, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

// noise returns uniform noise in [-amplitude, amplitude) from a fixed seed.
func noise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

func nearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
