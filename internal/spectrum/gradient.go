package spectrum

import "fmt"

// Gradient returns dy/dx sampled at x. Interior points use second order
// central differences that account for uneven spacing; the two end points use
// one-sided first differences. A single point has a zero gradient.
func Gradient(y, x []float64) ([]float64, error) {
	n := len(y)
	if len(x) != n {
		return nil, fmt.Errorf("gradient: %d values against %d coordinates", n, len(x))
	}

	g := make([]float64, n)
	if n < 2 {
		return g, nil
	}

	for i := 1; i < n-1; i++ {
		h1 := x[i] - x[i-1]
		h2 := x[i+1] - x[i]
		g[i] = -h2/(h1*(h1+h2))*y[i-1] + (h2-h1)/(h1*h2)*y[i] + h1/(h2*(h1+h2))*y[i+1]
	}

	g[0] = (y[1] - y[0]) / (x[1] - x[0])
	g[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])

	return g, nil
}
