package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/loader"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/render"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// frequencyList is a comma separated list of frequencies in GHz.
type frequencyList []float64

func (l *frequencyList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, f := range *l {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *frequencyList) Set(s string) error {
	var list frequencyList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Errorf("invalid frequency %q: %w", part, err)
		}
		list = append(list, f)
	}
	*l = list
	return nil
}

type Config struct {
	ConfigFile      string             `yaml:"-"`
	InputDir        string             `yaml:"input_dir"`  // Directory of field snapshots
	OutputDir       string             `yaml:"output_dir"` // Where maps and reports are written
	Interval        float64            `yaml:"interval"`   // Simulation time per ordering key step, seconds
	FallbackSpacing float64            `yaml:"fallback_spacing"`
	Grid            magnetization.Grid `yaml:"grid"`
	TargetsGHz      frequencyList      `yaml:"targets_ghz"` // Empty picks the peaks of the volume averaged spectrum
	Layer           int                `yaml:"layer"`
	FullVolume      bool               `yaml:"full_volume"` // Also render every layer in one image per target
	WindowGHz       float64            `yaml:"window_ghz"`  // Peak search cap of the volume averaged spectrum
	Threshold       float64            `yaml:"threshold"`
	ColorTheme      string             `yaml:"color_theme"`
	Clip            float64            `yaml:"clip"` // Fraction of extreme values left out of the color range
	Workers         int                `yaml:"workers"`
	LogLevel        string             `yaml:"log_level"`
}

func NewConfig() *Config {
	return &Config{
		OutputDir:       ".",
		Interval:        loader.DefaultSnapshotInterval,
		FallbackSpacing: loader.DefaultFallbackSpacing,
		Grid: magnetization.Grid{
			XNodes: 100,
			YNodes: 100,
			ZNodes: 5,
			XStep:  2e-9,
			YStep:  2e-9,
		},
		TargetsGHz: frequencyList{39.54, 41.69, 44.55},
		Layer:      spectrum.DefaultLayer,
		WindowGHz:  200,
		Threshold:  spectrum.DefaultThresholdFraction,
		ColorTheme: string(render.ViridisTheme),
		Workers:    runtime.NumCPU(),
		LogLevel:   "info",
	}
}

func NewConfigFromCLI() (*Config, error) {
	c, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	fs.StringVar(&c.ConfigFile, "c", "", "Path to an optional YAML configuration file")
	fs.StringVar(&c.InputDir, "i", "", "Directory with field snapshots (.ovf)")
	fs.StringVar(&c.OutputDir, "o", c.OutputDir, "Output directory")
	fs.Float64Var(&c.Interval, "interval", c.Interval, "Simulation time between snapshot keys in seconds")
	fs.Float64Var(&c.FallbackSpacing, "fallback-dt", c.FallbackSpacing, "Sample spacing in seconds used when the time axis is degenerate")
	fs.IntVar(&c.Grid.XNodes, "nx", c.Grid.XNodes, "Grid nodes along x")
	fs.IntVar(&c.Grid.YNodes, "ny", c.Grid.YNodes, "Grid nodes along y")
	fs.IntVar(&c.Grid.ZNodes, "nz", c.Grid.ZNodes, "Grid nodes along z")
	fs.Float64Var(&c.Grid.XStep, "dx", c.Grid.XStep, "Cell size along x in metres")
	fs.Float64Var(&c.Grid.YStep, "dy", c.Grid.YStep, "Cell size along y in metres")
	fs.Var(&c.TargetsGHz, "targets", "Comma separated target frequencies in GHz, empty picks spectrum peaks")
	fs.IntVar(&c.Layer, "layer", c.Layer, "Layer rendered for every target")
	fs.BoolVar(&c.FullVolume, "volume", false, "Also render all layers of every target in one image")
	fs.StringVar(&c.ColorTheme, "theme", c.ColorTheme, "Color theme [viridis, classic, grayscale, jungle, thermal, marine]")
	fs.Float64Var(&c.Clip, "clip", c.Clip, "Fraction of extreme values left out of the color range")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of parallel workers")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level [debug, info, warn, error]")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.ConfigFile != "" {
		if err := loadConfigFile(fs, c); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadConfigFile reads the YAML file named by -c. Flags given on the command
// line take precedence over the file.
func loadConfigFile(fs *flag.FlagSet, c *Config) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	p, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading configuration file: %w", err)
	}
	if err = yaml.Unmarshal(p, c); err != nil {
		return fmt.Errorf("parsing configuration file %s: %w", c.ConfigFile, err)
	}

	for name, value := range explicit {
		if err = fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Targets returns the target frequencies in Hz.
func (c *Config) Targets() []float64 {
	targets := make([]float64, len(c.TargetsGHz))
	for i, f := range c.TargetsGHz {
		targets[i] = f * spectrum.HzPerGHz
	}
	return targets
}

// PeakOptions returns the search options for the volume averaged spectrum.
func (c *Config) PeakOptions() spectrum.PeakOptions {
	return spectrum.PeakOptions{
		MaxFrequency:      c.WindowGHz * spectrum.HzPerGHz,
		ThresholdFraction: c.Threshold,
	}
}

// Level returns the configured log level, info when it cannot be parsed.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *Config) Validate() error {
	var errs []error

	if c.InputDir == "" {
		errs = append(errs, fault.NewConfigError("input directory is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, fault.NewConfigError("output directory is required"))
	}
	if c.Interval <= 0 {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("snapshot interval must be positive, got %g", c.Interval)))
	}
	if c.FallbackSpacing <= 0 {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("fallback sample spacing must be positive, got %g", c.FallbackSpacing)))
	}
	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, err)
	} else if c.Layer < 0 || c.Layer >= c.Grid.ZNodes {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("layer %d is outside the grid [0, %d)", c.Layer, c.Grid.ZNodes)))
	}
	for _, f := range c.TargetsGHz {
		if f <= 0 {
			errs = append(errs, fault.NewConfigError(fmt.Sprintf("target frequency must be positive, got %g GHz", f)))
		}
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("threshold must be in (0, 1], got %g", c.Threshold)))
	}
	if c.Clip < 0 || c.Clip >= 0.5 {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("clip must be in [0, 0.5), got %g", c.Clip)))
	}
	if _, err := render.ParseColorTheme(c.ColorTheme); err != nil {
		errs = append(errs, fault.NewConfigError(err.Error()))
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("invalid log level: %q", c.LogLevel)))
	}

	return errors.Join(errs...)
}
