package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/loader"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/render"
	"github.com/roman-kulish/fmr-analysis/internal/report"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

const resonanceReportName = "resonance_frequencies_report.txt"

// Run loads the snapshot directory, transforms every cell and renders the
// spatial mode maps of each target frequency.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	series, err := loader.New(
		loader.WithLogger(logger),
		loader.WithWorkers(config.Workers),
	).Snapshots(ctx, config.InputDir, config.Grid, config.Interval)
	if err != nil {
		return fmt.Errorf("loading snapshots: %w", err)
	}

	dt, err := loader.SampleSpacing(series.Times, config.FallbackSpacing)
	if err != nil {
		var degenerate *fault.DegenerateSeriesError
		if !errors.As(err, &degenerate) {
			return err
		}
		logger.Warn("frequency axis is approximate", slog.String("reason", err.Error()))
	}
	if i := loader.CheckUniform(series.Times, dt); i >= 0 {
		logger.Warn("snapshots are not uniformly spaced, spectrum assumes constant spacing",
			slog.Int("index", i),
			slog.Float64("dt", dt))
	}

	field, err := spectrum.Spatial(ctx, series, dt, spectrum.WithWorkers(config.Workers))
	if err != nil {
		return fmt.Errorf("computing spatial spectrum: %w", err)
	}

	logger.Info("spatial spectrum computed",
		slog.Group("stats",
			slog.Int("snapshots", series.Len()),
			slog.Int("cells", config.Grid.Cells()),
			slog.Int("bins", len(field.Frequencies)),
			slog.String("max", humanize.SIWithDigits(field.Frequencies[len(field.Frequencies)-1], 3, "Hz"))))

	logAveragePeaks(field, config.PeakOptions(), logger)

	targets := config.Targets()
	if len(targets) == 0 {
		targets = field.SuggestTargets(config.PeakOptions())
		logger.Info("no target frequencies configured, using volume averaged peaks", slog.Int("targets", len(targets)))
	}

	if err = os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	theme, _ := render.ParseColorTheme(config.ColorTheme)
	renderer := render.NewModeRenderer(render.RenderConfig{
		ColorTheme: theme,
		Clip:       config.Clip,
	})

	for _, target := range targets {
		if err = ctx.Err(); err != nil {
			return err
		}

		logger.Info("saving modes", slog.String("frequency", fmt.Sprintf("%.4e Hz", target)))

		if err = saveLayer(field, renderer, target, config, logger); err != nil {
			return err
		}
		if config.FullVolume {
			if err = saveVolume(field, renderer, target, config, logger); err != nil {
				return err
			}
		}
	}

	path := filepath.Join(config.OutputDir, resonanceReportName)
	if err = writeResonanceReport(path, field.Frequencies); err != nil {
		return fmt.Errorf("writing resonance report: %w", err)
	}
	logger.Info("output written", slog.String("path", path))

	return nil
}

func saveLayer(field *spectrum.FieldSpectrum, r *render.ModeRenderer, target float64, config *Config, logger *slog.Logger) error {
	maps, err := field.Layer(target, config.Layer)
	if err != nil {
		return fmt.Errorf("reconstructing layer %d: %w", config.Layer, err)
	}

	for _, m := range maps {
		img, err := r.Render(m, render.ModeTitle(m))
		if err != nil {
			return fmt.Errorf("rendering %s: %w", m.Component, err)
		}

		path := filepath.Join(config.OutputDir, layerFileName(m))
		if err = render.SavePNG(path, img); err != nil {
			return err
		}
		logger.Info("plot saved", slog.String("path", path), slog.Int("bin", m.Bin))
	}
	return nil
}

func saveVolume(field *spectrum.FieldSpectrum, r *render.ModeRenderer, target float64, config *Config, logger *slog.Logger) error {
	layers, err := field.Volume(target)
	if err != nil {
		return fmt.Errorf("reconstructing volume: %w", err)
	}

	img, err := r.RenderVolume(layers, []string{fmt.Sprintf("Resonance Frequency: %.4e Hz", target)})
	if err != nil {
		return fmt.Errorf("rendering volume: %w", err)
	}

	path := filepath.Join(config.OutputDir, fmt.Sprintf("Spatial_Modes_Volume_Frequency_%.4eHz.png", target))
	if err = render.SavePNG(path, img); err != nil {
		return err
	}
	logger.Info("plot saved", slog.String("path", path))
	return nil
}

func layerFileName(m *spectrum.ModeMap) string {
	return fmt.Sprintf("Spatial_Mode_%s_Z%d_Frequency_%.4eHz.png", m.Component, m.Layer, m.Target)
}

func logAveragePeaks(field *spectrum.FieldSpectrum, opts spectrum.PeakOptions, logger *slog.Logger) {
	for _, c := range magnetization.Components {
		for _, p := range spectrum.DetectPeaks(field.Frequencies, field.Average(c), opts) {
			logger.Info("volume averaged peak",
				slog.String("component", c.String()),
				slog.String("frequency", humanize.SIWithDigits(p.Frequency, 4, "Hz")),
				slog.Float64("magnitude", p.Magnitude))
		}
	}
}

func writeResonanceReport(path string, freqs []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return report.WriteResonanceReport(f, freqs)
}
