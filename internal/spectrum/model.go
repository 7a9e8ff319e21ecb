package spectrum

import (
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// HzPerGHz converts between the two frequency units used across the tools.
const HzPerGHz = 1e9

// Peak is a resonance candidate: a strict local maximum of a magnitude
// spectrum at or above the detection threshold.
type Peak struct {
	Index     int     `json:"index"`     // Bin index inside the spectrum
	Frequency float64 `json:"frequency"` // Bin frequency in Hz
	Magnitude float64 `json:"magnitude"` // Spectral magnitude at the bin
}

// Analysis is the single-sided spectrum of a scalar series, one magnitude and
// derivative curve per magnetization component.
type Analysis struct {
	Times       []float64    `json:"times"`       // Simulation time of every sample, seconds
	Detrended   [3][]float64 `json:"detrended"`   // Zero-mean samples per component
	Spacing     float64      `json:"spacing"`     // Sample spacing used for the frequency axis, seconds
	Frequencies []float64    `json:"frequencies"` // Bin frequencies in Hz, bins [0, N/2)
	Magnitudes  [3][]float64 `json:"magnitudes"`  // 2/N scaled magnitude per component
	Derivatives [3][]float64 `json:"derivatives"` // d(magnitude)/d(frequency in GHz) per component
}

// FrequenciesGHz returns the frequency axis in GHz.
func (a *Analysis) FrequenciesGHz() []float64 {
	return toGHz(a.Frequencies)
}

// Magnitude returns the magnitude curve of one component.
func (a *Analysis) Magnitude(c magnetization.Component) []float64 {
	return a.Magnitudes[c]
}

// BinWidth returns the spacing of the frequency axis in Hz.
func (a *Analysis) BinWidth() float64 {
	n := len(a.Times)
	if n == 0 || a.Spacing == 0 {
		return 0
	}
	return 1 / (float64(n) * a.Spacing)
}

func toGHz(hz []float64) []float64 {
	ghz := make([]float64, len(hz))
	for i, f := range hz {
		ghz[i] = f / HzPerGHz
	}
	return ghz
}
