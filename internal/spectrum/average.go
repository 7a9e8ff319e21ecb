package spectrum

import (
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// Average returns the magnitude of one component averaged over every cell,
// one value per bin. Peaks of the averaged curve are good candidates for
// mode reconstruction.
func (s *FieldSpectrum) Average(c magnetization.Component) []float64 {
	cells := s.Grid.Cells()
	buf := make([]float64, cells)
	avg := make([]float64, len(s.Frequencies))

	for k := range s.Frequencies {
		data := s.Bin(k)
		for i := 0; i < cells; i++ {
			buf[i] = data[i*3+int(c)]
		}
		avg[k] = stat.Mean(buf, nil)
	}

	return avg
}

// SuggestTargets returns the frequencies of the peaks of the volume averaged
// spectrum of every component, ascending and without duplicates.
func (s *FieldSpectrum) SuggestTargets(opts PeakOptions) []float64 {
	seen := make(map[int]struct{})
	for _, c := range magnetization.Components {
		for _, p := range DetectPeaks(s.Frequencies, s.Average(c), opts) {
			seen[p.Index] = struct{}{}
		}
	}

	var targets []float64
	for k, f := range s.Frequencies {
		if _, ok := seen[k]; ok {
			targets = append(targets, f)
		}
	}
	return targets
}
