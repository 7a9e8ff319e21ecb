package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/loader"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// ComponentConfig bounds the analysis of one magnetization component.
type ComponentConfig struct {
	WindowGHz    float64 `yaml:"window_ghz"`     // Peak search cap, zero searches the whole spectrum
	PlotLimitGHz float64 `yaml:"plot_limit_ghz"` // Upper limit of the spectrum plot
	Threshold    float64 `yaml:"threshold"`      // Peak threshold as a fraction of the window maximum
}

// PeakOptions converts the component settings into peak search options.
func (cc ComponentConfig) PeakOptions() spectrum.PeakOptions {
	return spectrum.PeakOptions{
		MaxFrequency:      cc.WindowGHz * spectrum.HzPerGHz,
		ThresholdFraction: cc.Threshold,
	}
}

type ComponentsConfig struct {
	Mx ComponentConfig `yaml:"mx"`
	My ComponentConfig `yaml:"my"`
	Mz ComponentConfig `yaml:"mz"`
}

// For returns the settings of component c.
func (cc *ComponentsConfig) For(c magnetization.Component) ComponentConfig {
	switch c {
	case magnetization.My:
		return cc.My
	case magnetization.Mz:
		return cc.Mz
	default:
		return cc.Mx
	}
}

type Config struct {
	ConfigFile      string           `yaml:"-"`
	Input           string           `yaml:"input"`      // Scalar table file
	OutputDir       string           `yaml:"output_dir"` // Where results are written
	FieldValue      string           `yaml:"field_value"`
	FieldUnit       string           `yaml:"field_unit"`
	FallbackSpacing float64          `yaml:"fallback_spacing"` // Sample spacing used for degenerate series, seconds
	Components      ComponentsConfig `yaml:"components"`
	DBPath          string           `yaml:"db"` // Optional results database
	LogLevel        string           `yaml:"log_level"`
}

func NewConfig() *Config {
	return &Config{
		OutputDir:       ".",
		FallbackSpacing: loader.DefaultFallbackSpacing,
		Components: ComponentsConfig{
			Mx: ComponentConfig{WindowGHz: 200, PlotLimitGHz: 60, Threshold: spectrum.DefaultThresholdFraction},
			My: ComponentConfig{WindowGHz: 200, PlotLimitGHz: 200, Threshold: spectrum.DefaultThresholdFraction},
			Mz: ComponentConfig{WindowGHz: 200, PlotLimitGHz: 200, Threshold: spectrum.DefaultThresholdFraction},
		},
		LogLevel: "info",
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
	fs.StringVar(&c.Input, "i", "", "Path to the ringdown table (.odt)")
	fs.StringVar(&c.OutputDir, "o", c.OutputDir, "Output directory")
	fs.StringVar(&c.FieldValue, "field", "", "Bias field value, e.g. 0.5")
	fs.StringVar(&c.FieldUnit, "unit", "", "Bias field unit, e.g. T")
	fs.Float64Var(&c.FallbackSpacing, "fallback-dt", c.FallbackSpacing, "Sample spacing in seconds used when the time axis is degenerate")
	fs.StringVar(&c.DBPath, "db", "", "Path to a results database, empty disables it")
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

// Field returns the field label used in file names and titles, e.g. "0.5T".
func (c *Config) Field() string {
	return c.FieldValue + c.FieldUnit
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

	if c.Input == "" {
		errs = append(errs, fault.NewConfigError("input file is required"))
	}
	if strings.TrimSpace(c.FieldValue) == "" {
		errs = append(errs, fault.NewConfigError("field value is required"))
	}
	if strings.TrimSpace(c.FieldUnit) == "" {
		errs = append(errs, fault.NewConfigError("field unit is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, fault.NewConfigError("output directory is required"))
	}
	if c.FallbackSpacing <= 0 {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("fallback sample spacing must be positive, got %g", c.FallbackSpacing)))
	}
	for _, comp := range magnetization.Components {
		cc := c.Components.For(comp)
		if cc.Threshold <= 0 || cc.Threshold > 1 {
			errs = append(errs, fault.NewConfigError(fmt.Sprintf("%s threshold must be in (0, 1], got %g", comp, cc.Threshold)))
		}
		if cc.WindowGHz < 0 || cc.PlotLimitGHz < 0 {
			errs = append(errs, fault.NewConfigError(fmt.Sprintf("%s frequency limits must not be negative", comp)))
		}
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("invalid log level: %q", c.LogLevel)))
	}

	return errors.Join(errs...)
}
