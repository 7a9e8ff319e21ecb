package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/fmr-analysis/internal/converter"
	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

const (
	// EnvScript names the variable holding the path of oommf.tcl.
	EnvScript = "OOMMF_TCL"

	// EnvTclsh names the variable holding the path of the Tcl interpreter.
	EnvTclsh = "TCLSH"
)

type Config struct {
	ConfigFile string `yaml:"-"`
	EnvFile    string `yaml:"-"`
	InputDir   string `yaml:"input_dir"`
	Script     string `yaml:"script"` // Absolute path of oommf.tcl
	Tclsh      string `yaml:"tclsh"`  // Empty looks the interpreter up on PATH
	InputExt   string `yaml:"input_ext"`
	OutputExt  string `yaml:"output_ext"`
	Workers    int    `yaml:"workers"`
	LogLevel   string `yaml:"log_level"`
}

func NewConfig() *Config {
	return &Config{
		EnvFile:   ".env",
		InputExt:  converter.DefaultInputExt,
		OutputExt: converter.DefaultOutputExt,
		Workers:   runtime.NumCPU(),
		LogLevel:  "info",
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
	fs.StringVar(&c.EnvFile, "env", c.EnvFile, "Path to an optional .env file")
	fs.StringVar(&c.InputDir, "i", "", "Directory with files to convert")
	fs.StringVar(&c.Script, "script", "", "Absolute path of oommf.tcl (default $"+EnvScript+")")
	fs.StringVar(&c.Tclsh, "tclsh", "", "Path of the Tcl interpreter (default $"+EnvTclsh+" or PATH lookup)")
	fs.StringVar(&c.InputExt, "in-ext", c.InputExt, "Extension of files to convert")
	fs.StringVar(&c.OutputExt, "out-ext", c.OutputExt, "Extension of converted files")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of conversions running at the same time")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level [debug, info, warn, error]")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.ConfigFile != "" {
		if err := loadConfigFile(fs, c); err != nil {
			return nil, err
		}
	}

	if err := c.loadEnv(); err != nil {
		return nil, err
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

// loadEnv fills the tool paths not given by flag or file from the
// environment. Variables already set win over the .env file.
func (c *Config) loadEnv() error {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", c.EnvFile, err)
		}
	}

	if c.Script == "" {
		c.Script = os.Getenv(EnvScript)
	}
	if c.Tclsh == "" {
		c.Tclsh = os.Getenv(EnvTclsh)
	}
	return nil
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
	if c.Script == "" {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("oommf.tcl path is required, set -script or $%s", EnvScript)))
	}
	for _, ext := range []string{c.InputExt, c.OutputExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fault.NewConfigError(fmt.Sprintf("invalid file extension: %q", ext)))
		}
	}
	if strings.EqualFold(c.InputExt, c.OutputExt) {
		errs = append(errs, fault.NewConfigError("input and output extensions must differ"))
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fault.NewConfigError(fmt.Sprintf("invalid log level: %q", c.LogLevel)))
	}

	return errors.Join(errs...)
}
