package app

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("ringdown", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigFlags(t *testing.T) {
	c, err := parseConfig(newFlagSet(), []string{"-i", "table.odt", "-field", "0.5", "-unit", "T", "-log-level", "debug"})
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if c.Input != "table.odt" || c.Field() != "0.5T" || c.OutputDir != "." {
		t.Errorf("Unexpected config: %+v", c)
	}
	if c.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", c.Level())
	}
	if got := c.Components.For(magnetization.Mx).PlotLimitGHz; got != 60 {
		t.Errorf("Expected mx plot limit 60 GHz, got %v", got)
	}
	if got := c.Components.For(magnetization.Mz).PeakOptions().MaxFrequency; got != 200e9 {
		t.Errorf("Expected mz window 200 GHz, got %v", got)
	}
}

func TestParseConfigFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringdown.yaml")
	content := `
input: from-file.odt
output_dir: results
field_value: "0.2"
field_unit: T
components:
  my:
    window_ghz: 80
    plot_limit_ghz: 80
    threshold: 0.1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	c, err := parseConfig(newFlagSet(), []string{"-c", path, "-field", "0.3"})
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if c.Input != "from-file.odt" || c.OutputDir != "results" {
		t.Errorf("Expected values from the file, got %+v", c)
	}
	if c.Field() != "0.3T" {
		t.Errorf("Expected the flag to override the file, got %q", c.Field())
	}
	if my := c.Components.For(magnetization.My); my.Threshold != 0.1 || my.WindowGHz != 80 {
		t.Errorf("Unexpected my settings: %+v", my)
	}
	if mx := c.Components.For(magnetization.Mx); mx.PlotLimitGHz != 60 {
		t.Errorf("Expected mx defaults to survive, got %+v", mx)
	}
}

func TestParseConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"-field", "0.5", "-unit", "T"}},
		{"missing field", []string{"-i", "table.odt", "-unit", "T"}},
		{"missing unit", []string{"-i", "table.odt", "-field", "0.5"}},
		{"bad fallback", []string{"-i", "table.odt", "-field", "0.5", "-unit", "T", "-fallback-dt", "0"}},
		{"bad log level", []string{"-i", "table.odt", "-field", "0.5", "-unit", "T", "-log-level", "loud"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConfig(newFlagSet(), tc.args)
			if err == nil {
				t.Fatal("Expected an error")
			}

			var cfgErr *fault.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected a ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := parseConfig(newFlagSet(), []string{"-c", filepath.Join(t.TempDir(), "none.yaml")})
	if err == nil {
		t.Error("Expected an error for a missing configuration file")
	}
}
