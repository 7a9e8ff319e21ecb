package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// DefaultLayer is the representative layer reconstructed when the caller
// does not ask for another one.
const DefaultLayer = 2

var errNoBins = errors.New("spectrum has no frequency bins")

// NearestBin returns the index of the frequency closest to target. When two
// bins are equally close the lower index wins.
func NearestBin(freqs []float64, target float64) (int, error) {
	if len(freqs) == 0 {
		return 0, errNoBins
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return 0, fmt.Errorf("invalid target frequency: %v", target)
	}

	best, bestDist := 0, math.Abs(freqs[0]-target)
	for i := 1; i < len(freqs); i++ {
		if d := math.Abs(freqs[i] - target); d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, nil
}

// ModeMap is the spatial distribution of spectral magnitude of one component
// in one layer at one frequency bin. Values are row-major in (y, x), row 0
// being the lowest y.
type ModeMap struct {
	Component magnetization.Component
	Layer     int
	Target    float64 // Requested frequency in Hz
	Bin       int     // Index of the selected bin
	Frequency float64 // Frequency of the selected bin in Hz
	Width     int     // x nodes
	Height    int     // y nodes
	ExtentX   float64 // Physical width in nanometres
	ExtentY   float64 // Physical height in nanometres
	Values    []float64
}

// At returns the magnitude of cell (x, y).
func (m *ModeMap) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

// Layer reconstructs the Mx, My and Mz mode maps of layer z at the bin
// nearest to target.
func (s *FieldSpectrum) Layer(target float64, z int) ([3]*ModeMap, error) {
	var maps [3]*ModeMap

	if z < 0 || z >= s.Grid.ZNodes {
		return maps, fmt.Errorf("layer %d out of range [0, %d)", z, s.Grid.ZNodes)
	}

	bin, err := NearestBin(s.Frequencies, target)
	if err != nil {
		return maps, err
	}

	return s.layerAt(bin, target, z), nil
}

// Volume reconstructs the mode maps of every layer at the bin nearest to
// target, indexed by layer.
func (s *FieldSpectrum) Volume(target float64) ([][3]*ModeMap, error) {
	bin, err := NearestBin(s.Frequencies, target)
	if err != nil {
		return nil, err
	}

	layers := make([][3]*ModeMap, s.Grid.ZNodes)
	for z := range layers {
		layers[z] = s.layerAt(bin, target, z)
	}
	return layers, nil
}

func (s *FieldSpectrum) layerAt(bin int, target float64, z int) [3]*ModeMap {
	g := s.Grid
	extentX, extentY := g.Extent()
	data := s.Bin(bin)

	var maps [3]*ModeMap
	for _, c := range magnetization.Components {
		m := &ModeMap{
			Component: c,
			Layer:     z,
			Target:    target,
			Bin:       bin,
			Frequency: s.Frequencies[bin],
			Width:     g.XNodes,
			Height:    g.YNodes,
			ExtentX:   extentX,
			ExtentY:   extentY,
			Values:    make([]float64, g.XNodes*g.YNodes),
		}
		for y := 0; y < g.YNodes; y++ {
			for x := 0; x < g.XNodes; x++ {
				m.Values[y*g.XNodes+x] = data[g.Offset(z, y, x)+int(c)]
			}
		}
		maps[c] = m
	}
	return maps
}
