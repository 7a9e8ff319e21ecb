package spectrum

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultThresholdFraction is the share of the window maximum a local
// maximum must reach to count as a peak.
const DefaultThresholdFraction = 0.05

// PeakOptions bounds the peak search of one component.
type PeakOptions struct {
	MaxFrequency      float64 // Analysis window cap in Hz, zero or negative disables the cap
	ThresholdFraction float64 // Threshold as a fraction of the window maximum
}

// Window returns how many leading bins of an ascending frequency axis lie at
// or below maxFreq.
func Window(freqs []float64, maxFreq float64) int {
	if maxFreq <= 0 {
		return len(freqs)
	}
	return sort.Search(len(freqs), func(i int) bool { return freqs[i] > maxFreq })
}

// LocalMaxima returns the indices of strict local maxima of y whose value is
// at least threshold, in ascending order. A maximum needs a lower neighbour on
// both sides, so the first and last index are never reported. A flat top is
// reported once, at its first index.
func LocalMaxima(y []float64, threshold float64) []int {
	var peaks []int

	n := len(y)
	for i := 1; i < n-1; {
		if !(y[i] > y[i-1]) {
			i++
			continue
		}

		// walk to the end of a possible plateau
		j := i
		for j+1 < n && y[j+1] == y[i] {
			j++
		}

		if j < n-1 && y[j+1] < y[i] && y[i] >= threshold {
			peaks = append(peaks, i)
		}
		i = j + 1
	}

	return peaks
}

// DetectPeaks restricts a magnitude spectrum to the analysis window and
// returns its peaks in ascending frequency order.
func DetectPeaks(freqs, mags []float64, opts PeakOptions) []Peak {
	n := min(Window(freqs, opts.MaxFrequency), len(mags))
	if n < 3 {
		return nil
	}

	window := mags[:n]
	threshold := opts.ThresholdFraction * floats.Max(window)

	indices := LocalMaxima(window, threshold)
	peaks := make([]Peak, len(indices))
	for i, idx := range indices {
		peaks[i] = Peak{
			Index:     idx,
			Frequency: freqs[idx],
			Magnitude: window[idx],
		}
	}

	return peaks
}
