package loader

import (
	"math"
	"sort"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

const (
	// DefaultSnapshotInterval is the simulated time between two snapshot keys.
	DefaultSnapshotInterval = 2e-12

	// DefaultFallbackSpacing is used when a series has fewer than two
	// distinct timestamps.
	DefaultFallbackSpacing = 2e-12

	// UniformTolerance is the relative deviation from the sample spacing
	// tolerated before a series is reported as non-uniform.
	UniformTolerance = 1e-6
)

// SimulationTimes converts ordering keys into simulation times.
func SimulationTimes(keys []int64, interval float64) []float64 {
	times := make([]float64, len(keys))
	for i, k := range keys {
		times[i] = float64(k) * interval
	}
	return times
}

// SampleSpacing returns the difference between the two smallest distinct
// timestamps. The rest of the series is assumed to follow the same spacing,
// see CheckUniform. With fewer than two distinct timestamps the fallback is
// returned together with a *fault.DegenerateSeriesError; callers must surface
// it as a warning.
func SampleSpacing(times []float64, fallback float64) (float64, error) {
	distinct := make([]float64, 0, len(times))
	seen := make(map[float64]struct{}, len(times))
	for _, t := range times {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}
	sort.Float64s(distinct)

	if len(distinct) < 2 {
		return fallback, &fault.DegenerateSeriesError{Distinct: len(distinct), Fallback: fallback}
	}

	dt := distinct[1] - distinct[0]
	if dt <= 0 || math.IsInf(dt, 0) || math.IsNaN(dt) {
		return fallback, &fault.DegenerateSeriesError{Distinct: len(distinct), Fallback: fallback}
	}

	return dt, nil
}

// CheckUniform verifies that consecutive timestamps are dt apart. It returns
// the index of the first sample that breaks the spacing, or -1.
func CheckUniform(times []float64, dt float64) int {
	for i := 1; i < len(times); i++ {
		step := times[i] - times[i-1]
		if math.Abs(step-dt) > UniformTolerance*math.Abs(dt) {
			return i
		}
	}
	return -1
}
