package magnetization

import (
	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

const nanometre = 1e9

// Grid describes the finite-difference mesh of the simulation. Node counts
// and cell sizes come from configuration, never from the snapshot files.
type Grid struct {
	XNodes int     `yaml:"x_nodes" json:"xNodes"`
	YNodes int     `yaml:"y_nodes" json:"yNodes"`
	ZNodes int     `yaml:"z_nodes" json:"zNodes"`
	XStep  float64 `yaml:"x_step" json:"xStep"` // Cell size along x in metres
	YStep  float64 `yaml:"y_step" json:"yStep"` // Cell size along y in metres
}

func (g Grid) Validate() error {
	switch {
	case g.XNodes <= 0 || g.YNodes <= 0 || g.ZNodes <= 0:
		return fault.NewConfigError("grid: node counts must be positive")
	case g.XStep <= 0 || g.YStep <= 0:
		return fault.NewConfigError("grid: cell sizes must be positive")
	}
	return nil
}

// Cells returns the number of grid cells.
func (g Grid) Cells() int {
	return g.XNodes * g.YNodes * g.ZNodes
}

// Values returns the number of scalars stored per snapshot.
func (g Grid) Values() int {
	return g.Cells() * 3
}

// Offset returns the position of the x component of cell (z, y, x) inside a
// flat snapshot.
func (g Grid) Offset(z, y, x int) int {
	return ((z*g.YNodes+y)*g.XNodes + x) * 3
}

// Extent returns the physical size of one layer in nanometres.
func (g Grid) Extent() (x, y float64) {
	return float64(g.XNodes) * g.XStep * nanometre, float64(g.YNodes) * g.YStep * nanometre
}
