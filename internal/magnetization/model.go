package magnetization

import (
	"fmt"
	"strings"
)

// Component identifies one cartesian component of the reduced magnetization.
type Component int

const (
	Mx Component = iota
	My
	Mz
)

// Components lists the magnetization components in storage order.
var Components = [3]Component{Mx, My, Mz}

func (c Component) String() string {
	switch c {
	case Mx:
		return "Mx"
	case My:
		return "My"
	case Mz:
		return "Mz"
	default:
		return fmt.Sprintf("Component(%d)", int(c))
	}
}

// ParseComponent accepts "mx", "My", "MZ" and so on.
func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mx":
		return Mx, nil
	case "my":
		return My, nil
	case "mz":
		return Mz, nil
	}
	return 0, fmt.Errorf("unknown magnetization component: %q", s)
}

// Series is a scalar (spatially averaged) magnetization time series.
type Series struct {
	Times   []float64    `json:"times"`   // Simulation time of each sample in seconds
	Samples [3][]float64 `json:"samples"` // Mx, My and Mz samples, each len(Times) long
}

// Len returns the number of samples in the series.
func (s *Series) Len() int {
	return len(s.Times)
}

// Component returns the samples of a single component.
func (s *Series) Component(c Component) []float64 {
	return s.Samples[c]
}

// FieldSeries is a time-ordered sequence of vector field snapshots on a
// regular grid. Each snapshot is a flat slice laid out as (z, y, x, component).
type FieldSeries struct {
	Grid      Grid        `json:"grid"`
	Keys      []int64     `json:"keys"`      // Ordering key of every snapshot, ascending
	Times     []float64   `json:"times"`     // Simulation time derived from the key, seconds
	Sources   []string    `json:"sources"`   // Path of the file each snapshot was read from
	Snapshots [][]float64 `json:"snapshots"` // One Grid.Values() long slice per snapshot
}

// Len returns the number of snapshots.
func (f *FieldSeries) Len() int {
	return len(f.Snapshots)
}

// At returns a single component of one cell in snapshot t.
func (f *FieldSeries) At(t, z, y, x int, c Component) float64 {
	return f.Snapshots[t][f.Grid.Offset(z, y, x)+int(c)]
}
