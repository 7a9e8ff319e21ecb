package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
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
	"github.com/roman-kulish/fmr-analysis/internal/storage"
)

// output is a result file and the function producing its content.
type output struct {
	name  string
	write func(io.Writer) error
}

// Run analyses one ringdown table and writes the spectrum table, workbook,
// component plots and peak report into the output directory. The peak
// report is also printed to stdout.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	return run(ctx, config, logger, os.Stdout)
}

func run(ctx context.Context, config *Config, logger *slog.Logger, stdout io.Writer) error {
	series, err := loader.New(loader.WithLogger(logger)).Ringdown(config.Input)
	if err != nil {
		return fmt.Errorf("loading ringdown: %w", err)
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
		logger.Warn("time axis is not uniformly spaced, spectrum assumes constant spacing",
			slog.Int("index", i),
			slog.Float64("dt", dt))
	}

	a, err := spectrum.Analyze(series, dt)
	if err != nil {
		return fmt.Errorf("computing spectrum: %w", err)
	}

	logger.Info("spectrum computed",
		slog.Group("stats",
			slog.Int("samples", series.Len()),
			slog.Float64("dt", dt),
			slog.Int("bins", len(a.Frequencies)),
			slog.String("resolution", humanize.SIWithDigits(a.BinWidth(), 3, "Hz"))))

	var peaks [3][]spectrum.Peak
	for _, c := range magnetization.Components {
		peaks[c] = spectrum.DetectPeaks(a.Frequencies, a.Magnitudes[c], config.Components.For(c).PeakOptions())
		logger.Debug("peaks detected", slog.String("component", c.String()), slog.Int("count", len(peaks[c])))
	}

	if err = os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	field := config.Field()
	outputs := []output{
		{fmt.Sprintf("frequency_spectrum_%s_with_derivatives.csv", field), func(w io.Writer) error {
			return report.WriteSpectrumCSV(w, a)
		}},
		{fmt.Sprintf("frequency_spectrum_%s_with_derivatives.xlsx", field), func(w io.Writer) error {
			return report.WriteWorkbook(w, a, peaks)
		}},
		{fmt.Sprintf("peak_report_%s.txt", field), func(w io.Writer) error {
			return report.WritePeakReport(w, field, peaks)
		}},
	}

	freqsGHz := a.FrequenciesGHz()
	for _, c := range magnetization.Components {
		cfg := render.PlotConfig{
			Component: c,
			Field:     field,
			XLimitGHz: config.Components.For(c).PlotLimitGHz,
		}
		data := render.PlotData{
			Times:          a.Times,
			Detrended:      a.Detrended[c],
			FrequenciesGHz: freqsGHz,
			Magnitudes:     a.Magnitudes[c],
			Peaks:          peaks[c],
		}
		outputs = append(outputs, output{fmt.Sprintf("%s_plot_%s.png", c, field), func(w io.Writer) error {
			return render.ComponentPlot(w, cfg, data)
		}})
	}

	for _, out := range outputs {
		path := filepath.Join(config.OutputDir, out.name)
		if err = writeFile(path, out.write); err != nil {
			return fmt.Errorf("writing %s: %w", out.name, err)
		}
		logger.Info("output written", slog.String("path", path))
	}

	if err = report.WritePeakReport(stdout, field, peaks); err != nil {
		return err
	}

	if config.DBPath != "" {
		if err = storeResults(ctx, config, a, peaks, logger); err != nil {
			return fmt.Errorf("storing results: %w", err)
		}
	}

	return nil
}

func storeResults(ctx context.Context, config *Config, a *spectrum.Analysis, peaks [3][]spectrum.Peak, logger *slog.Logger) (err error) {
	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	runID, err := store.CreateRun(ctx, config.Field(), config.Input, len(a.Times), a.Spacing, config)
	if err != nil {
		return err
	}
	if err = store.StoreAnalysis(ctx, runID, a); err != nil {
		return err
	}
	if err = store.StorePeaks(ctx, runID, peaks); err != nil {
		return err
	}

	logger.Info("results stored", slog.String("db", config.DBPath), slog.String("run", runID))
	return nil
}

// writeFile buffers the output so that a failed writer leaves no partial file.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
