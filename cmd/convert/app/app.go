package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roman-kulish/fmr-analysis/internal/converter"
)

// newHandler builds the conversion tool runner.
var newHandler = func(config *Config) (converter.Handler, error) {
	return converter.NewOOMMF(config.Tclsh, config.Script)
}

// Run converts every matching file of the input directory. Files converted
// before a failure are kept; the error lists every failed file.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	h, err := newHandler(config)
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}

	conv := converter.New(h,
		converter.WithLogger(logger),
		converter.WithWorkers(config.Workers),
		converter.WithExtensions(config.InputExt, config.OutputExt))

	summary, err := conv.ConvertDir(ctx, config.InputDir)
	if err != nil {
		return err
	}

	logger.Info("conversion finished",
		slog.Group("stats",
			slog.String("output", summary.OutputDir),
			slog.Int("converted", summary.Converted()),
			slog.Int("total", len(summary.Results))))

	for _, r := range summary.Failed() {
		logger.Warn("not converted", slog.String("input", r.Input))
	}

	return summary.Err()
}
