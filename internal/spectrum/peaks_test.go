package spectrum

import (
	"slices"
	"testing"
)

func TestLocalMaxima(t *testing.T) {
	testCases := []struct {
		name      string
		y         []float64
		threshold float64
		want      []int
	}{
		{"single peak", []float64{0, 1, 3, 1, 0}, 0, []int{2}},
		{"edges are never peaks", []float64{5, 1, 2, 1, 5}, 0, []int{2}},
		{"rising to the last bin", []float64{0, 1, 2, 3}, 0, nil},
		{"falling from the first bin", []float64{3, 2, 1, 0}, 0, nil},
		{"plateau reports first index", []float64{0, 2, 2, 2, 1}, 0, []int{1}},
		{"plateau touching the edge", []float64{0, 1, 2, 2}, 0, nil},
		{"plateau followed by a rise", []float64{0, 2, 2, 3, 1}, 0, []int{3}},
		{"below threshold", []float64{0, 1, 0, 5, 0}, 2, []int{3}},
		{"at threshold", []float64{0, 2, 0, 5, 0}, 2, []int{1, 3}},
		{"flat", []float64{1, 1, 1, 1}, 0, nil},
		{"too short", []float64{0, 1}, 0, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LocalMaxima(tc.y, tc.threshold)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	freqs := []float64{0, 10, 20, 30, 40}

	testCases := []struct {
		max  float64
		want int
	}{
		{0, 5}, {-1, 5}, {25, 3}, {30, 4}, {100, 5}, {-0.5, 5},
	}
	for _, tc := range testCases {
		if got := Window(freqs, tc.max); got != tc.want {
			t.Errorf("Window(%v): expected %d, got %d", tc.max, tc.want, got)
		}
	}
}

func TestDetectPeaks(t *testing.T) {
	freqs := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80}
	mags := []float64{0, 0.04, 0.01, 1.0, 0.2, 0.6, 0.1, 9, 0}

	t.Run("window and threshold", func(t *testing.T) {
		peaks := DetectPeaks(freqs, mags, PeakOptions{MaxFrequency: 60, ThresholdFraction: 0.05})

		// The 9 at 70 Hz is outside the window and must not raise the threshold.
		want := []Peak{
			{Index: 3, Frequency: 30, Magnitude: 1.0},
			{Index: 5, Frequency: 50, Magnitude: 0.6},
		}
		if !slices.Equal(peaks, want) {
			t.Errorf("Expected %v, got %v", want, peaks)
		}
	})

	t.Run("invariants", func(t *testing.T) {
		for _, maxFreq := range []float64{0, 30, 40, 60, 75} {
			n := Window(freqs, maxFreq)
			window := mags[:n]
			threshold := 0.05 * slices.Max(window)

			for _, p := range DetectPeaks(freqs, mags, PeakOptions{MaxFrequency: maxFreq, ThresholdFraction: 0.05}) {
				if p.Index == 0 || p.Index == n-1 {
					t.Errorf("max %v: peak reported at window edge %d", maxFreq, p.Index)
				}
				if p.Magnitude < threshold {
					t.Errorf("max %v: peak %v below threshold %v", maxFreq, p, threshold)
				}
			}
		}
	})

	t.Run("short window", func(t *testing.T) {
		if peaks := DetectPeaks(freqs, mags, PeakOptions{MaxFrequency: 15, ThresholdFraction: 0.05}); peaks != nil {
			t.Errorf("Expected no peaks, got %v", peaks)
		}
	})
}
