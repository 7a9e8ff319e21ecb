package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/fmr-analysis/internal/converter"
)

type helperHandler struct{}

func (helperHandler) Cmd(ctx context.Context, input, output string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", input, output)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func (helperHandler) Tool() string {
	return "helper"
}

// TestHelperProcess is not a real test: it is the fake conversion tool.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) != 3 {
		os.Exit(2)
	}

	if strings.Contains(filepath.Base(args[1]), "bad") {
		fmt.Fprintf(os.Stderr, "cannot read %s\n", args[1])
		os.Exit(1)
	}
	if err := os.WriteFile(args[2], []byte("# OOMMF OVF 2.0\n"), 0o644); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func useHelper(t *testing.T) {
	t.Helper()
	prev := newHandler
	newHandler = func(*Config) (converter.Handler, error) { return helperHandler{}, nil }
	t.Cleanup(func() { newHandler = prev })
}

func writeInputs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("binary"), 0o644); err != nil {
			t.Fatalf("Failed to write input: %v", err)
		}
	}
}

func testConfig(dir string) *Config {
	c := NewConfig()
	c.InputDir = dir
	c.Workers = 2
	return c
}

func TestRunConvert(t *testing.T) {
	useHelper(t)

	dir := t.TempDir()
	writeInputs(t, dir, "m-000000001-1.omf", "m-000000002-1.omf", "notes.txt")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Run(context.Background(), testConfig(dir), logger); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"m-000000001-1.ovf", "m-000000002-1.ovf"} {
		if _, err := os.Stat(filepath.Join(dir, converter.OutputDir, name)); err != nil {
			t.Errorf("Expected converted file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, converter.OutputDir, "notes.ovf")); err == nil {
		t.Error("Expected files with other extensions to be skipped")
	}
}

func TestRunConvertPartialFailure(t *testing.T) {
	useHelper(t)

	dir := t.TempDir()
	writeInputs(t, dir, "a.omf", "bad.omf", "c.omf")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Run(context.Background(), testConfig(dir), logger)
	if !errors.Is(err, converter.ErrConversionFailed) {
		t.Fatalf("Expected a conversion failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.omf") {
		t.Errorf("Expected the failed file in the error, got %v", err)
	}

	for _, name := range []string{"a.ovf", "c.ovf"} {
		if _, err := os.Stat(filepath.Join(dir, converter.OutputDir, name)); err != nil {
			t.Errorf("Expected %s to be kept: %v", name, err)
		}
	}
}

func TestRunConvertMissingScript(t *testing.T) {
	c := testConfig(t.TempDir())
	c.Script = filepath.Join(t.TempDir(), "oommf.tcl")
	c.Tclsh = "/bin/true"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Run(context.Background(), c, logger); err == nil {
		t.Error("Expected an error for a missing launcher script")
	}
}
