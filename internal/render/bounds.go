package render

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Bounds is the magnitude range mapped onto the color table.
type Bounds struct {
	Min float64
	Max float64
}

// Span returns Max-Min, or 1 for an empty range so that flat maps render
// with the lowest color instead of dividing by zero.
func (b Bounds) Span() float64 {
	if s := b.Max - b.Min; s > 0 {
		return s
	}
	return 1
}

// BoundsOf returns the range of values. With clip > 0 the lowest and highest
// clip fraction of values are ignored, which keeps a single hot cell from
// washing out the rest of a map.
func BoundsOf(values []float64, clip float64) Bounds {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Bounds{Min: 0, Max: 1}
	}

	slices.Sort(finite)
	if clip <= 0 || clip >= 0.5 {
		return Bounds{Min: finite[0], Max: finite[len(finite)-1]}
	}

	return Bounds{
		Min: stat.Quantile(clip, stat.Empirical, finite, nil),
		Max: stat.Quantile(1-clip, stat.Empirical, finite, nil),
	}
}

// Merge returns the smallest range covering both bounds.
func (b Bounds) Merge(o Bounds) Bounds {
	return Bounds{Min: math.Min(b.Min, o.Min), Max: math.Max(b.Max, o.Max)}
}
