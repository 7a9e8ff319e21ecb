package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

const (
	defaultPlotWidth  = 14 * vg.Inch
	defaultPlotHeight = 6 * vg.Inch
)

var timeColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

var componentColors = [3]color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, // Mx
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, // My
	color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}, // Mz
}

// PlotConfig describes a component plot.
type PlotConfig struct {
	Component magnetization.Component
	Field     string    // Field label shown in the titles, e.g. "0.5 T"
	XLimitGHz float64   // Upper limit of the spectrum axis
	Width     vg.Length // Zero means 14 inches
	Height    vg.Length // Zero means 6 inches
}

// PlotData is what a component plot shows.
type PlotData struct {
	Times          []float64 // seconds
	Detrended      []float64
	FrequenciesGHz []float64
	Magnitudes     []float64
	Peaks          []spectrum.Peak
}

// ComponentPlot writes a PNG with the detrended magnetization against time
// on the left and its spectrum with annotated peaks on the right.
func ComponentPlot(w io.Writer, cfg PlotConfig, data PlotData) error {
	if cfg.Width == 0 {
		cfg.Width = defaultPlotWidth
	}
	if cfg.Height == 0 {
		cfg.Height = defaultPlotHeight
	}

	timePlot, err := timeDomainPlot(cfg, data)
	if err != nil {
		return fmt.Errorf("building time plot: %w", err)
	}
	specPlot, err := spectrumPlot(cfg, data)
	if err != nil {
		return fmt.Errorf("building spectrum plot: %w", err)
	}

	c := vgimg.New(cfg.Width, cfg.Height)
	dc := draw.New(c)

	tiles := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      vg.Centimeter,
		PadTop:    vg.Millimeter * 5,
		PadBottom: vg.Millimeter * 5,
		PadLeft:   vg.Millimeter * 5,
		PadRight:  vg.Millimeter * 5,
	}

	canvases := plot.Align([][]*plot.Plot{{timePlot, specPlot}}, tiles, dc)
	timePlot.Draw(canvases[0][0])
	specPlot.Draw(canvases[0][1])

	if _, err = (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encoding plot: %w", err)
	}
	return nil
}

func timeDomainPlot(cfg PlotConfig, data PlotData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Magnetization %s vs Simulation Time (%s)", cfg.Component, cfg.Field)
	p.X.Label.Text = "Simulation Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Magnetization %s", cfg.Component)
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(toXYs(data.Times, data.Detrended, len(data.Times)))
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = timeColor
	p.Add(line)
	p.Legend.Add(cfg.Component.String(), line)
	p.Legend.Top = true

	return p, nil
}

func spectrumPlot(cfg PlotConfig, data PlotData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Power Spectrum of Magnetization %s (%s)", cfg.Component, cfg.Field)
	p.X.Label.Text = "Frequency (GHz)"
	p.Y.Label.Text = "Power"
	p.Add(plotter.NewGrid())

	n := spectrum.Window(data.FrequenciesGHz, cfg.XLimitGHz)
	line, err := plotter.NewLine(toXYs(data.FrequenciesGHz, data.Magnitudes, n))
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = componentColors[cfg.Component]
	p.Add(line)

	var marks plotter.XYs
	var labels []string
	for _, pk := range data.Peaks {
		ghz := pk.Frequency / spectrum.HzPerGHz
		if cfg.XLimitGHz > 0 && ghz > cfg.XLimitGHz {
			continue
		}
		marks = append(marks, plotter.XY{X: ghz, Y: pk.Magnitude})
		labels = append(labels, fmt.Sprintf("%.2f GHz", ghz))
	}

	if len(marks) > 0 {
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(4)

		annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: marks, Labels: labels})
		if err != nil {
			return nil, err
		}
		p.Add(scatter, annotations)
	}

	p.X.Min = 0
	if cfg.XLimitGHz > 0 {
		p.X.Max = cfg.XLimitGHz
	}

	return p, nil
}

func toXYs(x, y []float64, n int) plotter.XYs {
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i].X = x[i]
		xys[i].Y = y[i]
	}
	return xys
}
