package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 72.0
	fontSize       = 14.0
	tickMarkLength = 5
	pixelsPerLabel = 80.0
	colorbarWidth  = 20
	colorbarGap    = 15
)

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
}

func newAnnotator(size float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) setTarget(img *image.RGBA) {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)
}

func (a *annotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) ascent() int {
	return a.fontFace.Metrics().Ascent.Round()
}

func (a *annotator) textWidth(s string) int {
	return font.MeasureString(a.fontFace, s).Round()
}

// drawString draws s with its top-left corner at (x, y).
func (a *annotator) drawString(s string, x, y int) error {
	_, err := a.context.DrawString(s, freetype.Pt(x, y+a.ascent()))
	return err
}

// drawCentered draws s horizontally centred on cx with its top at y.
func (a *annotator) drawCentered(s string, cx, y int) error {
	return a.drawString(s, cx-a.textWidth(s)/2, y)
}

// drawTitle centres every line of title in the band [0, height) of img.
func (a *annotator) drawTitle(img *image.RGBA, lines []string, height int) error {
	lh := a.lineHeight()
	y := (height - lh*len(lines)) / 2
	cx := img.Bounds().Dx() / 2

	for _, line := range lines {
		if err := a.drawCentered(line, cx, y); err != nil {
			return fmt.Errorf("drawing title: %w", err)
		}
		y += lh
	}
	return nil
}

// drawAxes draws the nanometre scales along the bottom and left edges of
// area. The y axis grows upwards.
func (a *annotator) drawAxes(img *image.RGBA, area image.Rectangle, extentX, extentY float64) error {
	lh := a.lineHeight()

	stepX := niceStep(extentX, area.Dx())
	for v := 0.0; v <= extentX*(1+1e-9); v += stepX {
		x := area.Min.X + int(math.Round(v/extentX*float64(area.Dx())))
		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}
		if err := a.drawCentered(formatLength(v), x, area.Max.Y+tickMarkLength+2); err != nil {
			return fmt.Errorf("drawing x label: %w", err)
		}
	}
	if err := a.drawCentered("X (nm)", area.Min.X+area.Dx()/2, area.Max.Y+tickMarkLength+4+lh); err != nil {
		return fmt.Errorf("drawing x axis name: %w", err)
	}

	stepY := niceStep(extentY, area.Dy())
	for v := 0.0; v <= extentY*(1+1e-9); v += stepY {
		y := area.Max.Y - int(math.Round(v/extentY*float64(area.Dy())))
		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}
		label := formatLength(v)
		if err := a.drawString(label, area.Min.X-tickMarkLength-4-a.textWidth(label), y-lh/2); err != nil {
			return fmt.Errorf("drawing y label: %w", err)
		}
	}
	if err := a.drawString("Y (nm)", 4, area.Min.Y-lh-4); err != nil {
		return fmt.Errorf("drawing y axis name: %w", err)
	}

	return nil
}

// drawColorbar draws the color scale to the right of area with the lowest
// magnitude at the bottom.
func (a *annotator) drawColorbar(img *image.RGBA, area image.Rectangle, cm *ColorMapper, bounds Bounds) error {
	left := area.Max.X + colorbarGap
	height := area.Dy()

	for y := 0; y < height; y++ {
		c := cm.Normalized(float64(height-1-y) / float64(max(height-1, 1)))
		for x := left; x < left+colorbarWidth; x++ {
			img.Set(x, area.Min.Y+y, c)
		}
	}

	lh := a.lineHeight()
	labels := []struct {
		value float64
		y     int
	}{
		{bounds.Max, area.Min.Y},
		{(bounds.Min + bounds.Max) / 2, area.Min.Y + height/2},
		{bounds.Min, area.Max.Y},
	}
	for _, l := range labels {
		if err := a.drawString(fmt.Sprintf("%.2e", l.value), left+colorbarWidth+4, l.y-lh/2); err != nil {
			return fmt.Errorf("drawing colorbar label: %w", err)
		}
	}

	if err := a.drawString("Magnitude", left, area.Min.Y-lh-4); err != nil {
		return fmt.Errorf("drawing colorbar title: %w", err)
	}
	return nil
}

// niceStep returns a 1, 2 or 5 times power of ten step giving roughly one
// label every pixelsPerLabel pixels.
func niceStep(span float64, pixels int) float64 {
	if span <= 0 || pixels <= 0 {
		return 1
	}

	desired := math.Max(1, float64(pixels)/pixelsPerLabel)
	raw := span / desired
	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))

	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= raw {
			return step
		}
	}
	return 10 * magnitude
}

func formatLength(nm float64) string {
	if nm == math.Trunc(nm) {
		return fmt.Sprintf("%.0f", nm)
	}
	return fmt.Sprintf("%.1f", nm)
}
