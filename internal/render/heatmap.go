package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

const (
	// Default border sizes in pixels
	defaultTopBorder    = 60
	defaultLeftBorder   = 70
	defaultBottomBorder = 60
	defaultRightBorder  = 130

	// minPlotSize is the smallest edge of the map area when the cell size
	// is chosen automatically.
	minPlotSize = 400
)

// BorderConfig defines the sizes of white space around the map
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for the y scale
	Bottom int // Space for the x scale
	Right  int // Space for the colorbar
}

// RenderConfig holds all configuration options for mode map visualization
type RenderConfig struct {
	FontSize   float64    // Font size in points
	ColorTheme ColorTheme // Color scheme for magnitudes
	CellSize   int        // Pixels per grid cell, zero picks one automatically
	Clip       float64    // Fraction of extreme values left out of the color range

	BorderConfig BorderConfig
}

// ModeRenderer draws spatial mode maps as annotated heat maps.
type ModeRenderer struct {
	config RenderConfig
}

// NewModeRenderer creates a new renderer with the given configuration
func NewModeRenderer(config RenderConfig) *ModeRenderer {
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = ViridisTheme
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &ModeRenderer{config: config}
}

// ModeTitle returns the title lines used for a single layer map.
func ModeTitle(m *spectrum.ModeMap) []string {
	return []string{
		fmt.Sprintf("Spatial Mode %s at Z=%d", m.Component, m.Layer),
		fmt.Sprintf("Frequency: %.4e Hz (bin %s)", m.Target, humanize.SIWithDigits(m.Frequency, 2, "Hz")),
	}
}

func (r *ModeRenderer) cellSize(m *spectrum.ModeMap) int {
	if r.config.CellSize > 0 {
		return r.config.CellSize
	}
	return max(1, minPlotSize/max(m.Width, m.Height))
}

// Render draws one mode map with axes in nanometres, a colorbar and title.
// Cell (0, 0) is drawn in the lower left corner.
func (r *ModeRenderer) Render(m *spectrum.ModeMap, title []string) (*image.RGBA, error) {
	if m.Width <= 0 || m.Height <= 0 || len(m.Values) != m.Width*m.Height {
		return nil, fmt.Errorf("invalid mode map: %dx%d with %d values", m.Width, m.Height, len(m.Values))
	}

	b := r.config.BorderConfig
	cell := r.cellSize(m)
	w, h := m.Width*cell, m.Height*cell

	img := image.NewRGBA(image.Rect(0, 0, b.Left+w+b.Right, b.Top+h+b.Bottom))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+w, b.Top+h)
	bounds := BoundsOf(m.Values, r.config.Clip)
	cm := NewColorMapper(r.config.ColorTheme, bounds)

	ann, err := newAnnotator(r.config.FontSize)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()
	ann.setTarget(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing title", func() error { return ann.drawTitle(img, title, b.Top) }},
		{"drawing axes", func() error { return ann.drawAxes(img, area, m.ExtentX, m.ExtentY) }},
		{"drawing colorbar", func() error { return ann.drawColorbar(img, area, cm, bounds) }},
	}
	for _, op := range ops {
		if err = op.fn(); err != nil {
			return nil, fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	r.renderCells(img, area, cell, m, cm)

	return img, nil
}

func (r *ModeRenderer) renderCells(img *image.RGBA, area image.Rectangle, cell int, m *spectrum.ModeMap, cm *ColorMapper) {
	for y := 0; y < m.Height; y++ {
		top := area.Max.Y - (y+1)*cell
		for x := 0; x < m.Width; x++ {
			left := area.Min.X + x*cell
			rect := image.Rect(left, top, left+cell, top+cell)
			draw.Draw(img, rect, image.NewUniform(cm.GetColor(m.At(x, y))), image.Point{}, draw.Src)
		}
	}
}

// RenderVolume draws the maps of every layer as a grid, one row per layer and
// one column per component, under a shared title.
func (r *ModeRenderer) RenderVolume(layers [][3]*spectrum.ModeMap, title []string) (*image.RGBA, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers to render")
	}

	var panels [][3]*image.RGBA
	for _, maps := range layers {
		var row [3]*image.RGBA
		for c, m := range maps {
			panel, err := r.Render(m, []string{fmt.Sprintf("%s, Z=%d", m.Component, m.Layer)})
			if err != nil {
				return nil, fmt.Errorf("rendering layer %d %s: %w", m.Layer, m.Component, err)
			}
			row[c] = panel
		}
		panels = append(panels, row)
	}

	pw, ph := panels[0][0].Bounds().Dx(), panels[0][0].Bounds().Dy()
	titleHeight := r.config.BorderConfig.Top

	img := image.NewRGBA(image.Rect(0, 0, 3*pw, titleHeight+len(panels)*ph))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for z, row := range panels {
		for c, panel := range row {
			at := image.Pt(c*pw, titleHeight+z*ph)
			draw.Draw(img, panel.Bounds().Add(at), panel, image.Point{}, draw.Src)
		}
	}

	ann, err := newAnnotator(r.config.FontSize * 1.3)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()
	ann.setTarget(img)

	if err = ann.drawTitle(img, title, titleHeight); err != nil {
		return nil, err
	}

	return img, nil
}
