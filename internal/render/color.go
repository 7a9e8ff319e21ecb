package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme represents a predefined color scheme for magnitude visualization.
type ColorTheme string

const (
	ViridisTheme   ColorTheme = "viridis"   // Perceptually uniform purple to yellow
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validThemes = map[ColorTheme]struct{}{
	ViridisTheme:   {},
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

// ParseColorTheme validates a theme name.
func ParseColorTheme(s string) (ColorTheme, error) {
	t := ColorTheme(s)
	if _, ok := validThemes[t]; !ok {
		return "", fmt.Errorf("unknown color theme: %q", s)
	}
	return t, nil
}

// viridisStops samples the viridis map at equal distances.
var viridisStops = []string{
	"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// ColorMapper maps magnitudes onto a pre-computed color table.
type ColorMapper struct {
	colorMap      []color.Color // Pre-computed colors
	theme         func(float64) color.Color
	themeName     ColorTheme
	size          int     // Cache size
	valuePerIndex float64 // Magnitude range per index step
	boundsMin     float64 // Cached bounds.Min
}

// NewColorMapper creates a new color mapper with specified theme and bounds.
func NewColorMapper(theme ColorTheme, bounds Bounds) *ColorMapper {
	cm := &ColorMapper{
		colorMap:  make([]color.Color, DefaultColorMapSize),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      DefaultColorMapSize,
	}

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the magnitude range covered by the table.
func (cm *ColorMapper) UpdateBounds(bounds Bounds) {
	cm.boundsMin = bounds.Min
	cm.valuePerIndex = bounds.Span() / float64(cm.size-1)
}

// GetColor returns the color for a magnitude, clamped to the bounds.
func (cm *ColorMapper) GetColor(v float64) color.Color {
	if math.IsNaN(v) {
		return cm.colorMap[0]
	}

	index := int((v - cm.boundsMin) / cm.valuePerIndex)

	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// Normalized returns the color at position p in [0, 1] of the table.
func (cm *ColorMapper) Normalized(p float64) color.Color {
	index := int(math.Round(p * float64(cm.size-1)))
	return cm.colorMap[max(0, min(index, cm.size-1))]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

func hsv(h, s, v float64) color.Color {
	return colorful.Hsv(math.Mod(h, 360), math.Max(0, math.Min(1, s)), math.Max(0, math.Min(1, v))).Clamped()
}

// gradient blends between equally spaced hex stops in CIE-Lab space.
func gradient(stops []string) func(float64) color.Color {
	colors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			panic(fmt.Sprintf("render: invalid color stop %q: %v", s, err))
		}
		colors[i] = c
	}

	return func(p float64) color.Color {
		p = math.Max(0, math.Min(1, p))
		pos := p * float64(len(colors)-1)
		i := int(pos)
		if i >= len(colors)-1 {
			return colors[len(colors)-1]
		}
		return colors[i].BlendLab(colors[i+1], pos-float64(i)).Clamped()
	}
}

// Color theme implementations
func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(p float64) color.Color {
			return hsv(240-(p*240), 0.9+(p*0.1), math.Pow(p, 0.7))
		}

	case GrayscaleTheme:
		return func(p float64) color.Color {
			v := uint8(math.Pow(p, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 255}
		}

	case JungleTheme:
		return func(p float64) color.Color {
			return hsv(120-(p*60), 1.0, 0.3+(math.Pow(p, 0.6)*0.7))
		}

	case ThermalTheme:
		return func(p float64) color.Color {
			if p < 0.33 {
				return color.RGBA{R: uint8((p * 3) * 255), A: 255}
			}
			if p < 0.66 {
				return color.RGBA{R: 255, G: uint8(((p - 0.33) * 3) * 255), A: 255}
			}
			return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (p-0.66)*3) * 255), A: 255}
		}

	case MarineTheme:
		return func(p float64) color.Color {
			return hsv(240-(p*60), 1.0-(p*0.8), 0.3+(math.Pow(p, 0.6)*0.7))
		}

	default:
		return gradient(viridisStops)
	}
}
