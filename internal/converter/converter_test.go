package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

// helperHandler runs this test binary as a stand-in for the conversion tool.
// Inputs whose name contains "bad" make the tool fail.
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
		fmt.Fprintf(os.Stderr, "usage: helper -- input output\n")
		os.Exit(2)
	}
	input, output := args[1], args[2]

	if strings.Contains(filepath.Base(input), "bad") {
		fmt.Fprintf(os.Stderr, "cannot read %s\n", input)
		os.Exit(1)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = os.WriteFile(output, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# OOMMF: rectangular mesh v1.0\n"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConvertDirSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "ringdown-Oxs_TimeDriver-Magnetization-00-000000120.omf")

	summary, err := New(helperHandler{}).ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Failed to convert: %v", err)
	}
	if err = summary.Err(); err != nil {
		t.Fatalf("Unexpected conversion failure: %v", err)
	}

	got := listDir(t, filepath.Join(dir, OutputDir))
	want := "ringdown-Oxs_TimeDriver-Magnetization-00-000000120.ovf"
	if len(got) != 1 || got[0] != want {
		t.Errorf("Expected exactly [%s], got %v", want, got)
	}
	if summary.Converted() != 1 {
		t.Errorf("Expected 1 conversion, got %d", summary.Converted())
	}
}

func TestConvertDirSkipsOtherEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.omf", "b.ovf", "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "nested.omf"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	summary, err := New(helperHandler{}).ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Failed to convert: %v", err)
	}

	if len(summary.Results) != 1 || filepath.Base(summary.Results[0].Input) != "a.omf" {
		t.Errorf("Expected only a.omf to be converted, got %+v", summary.Results)
	}
}

func TestConvertDirCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "m-000000001-a.omf", "m-000000002-bad.omf", "m-000000003-c.omf")

	summary, err := New(helperHandler{}, WithWorkers(2)).ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	if summary.Converted() != 2 {
		t.Errorf("Expected 2 conversions, got %d", summary.Converted())
	}

	failed := summary.Failed()
	if len(failed) != 1 || !strings.Contains(failed[0].Input, "bad") {
		t.Fatalf("Expected the bad file to fail, got %+v", failed)
	}

	var toolErr *fault.ExternalToolError
	if !errors.As(failed[0].Err, &toolErr) {
		t.Fatalf("Expected an ExternalToolError, got %v", failed[0].Err)
	}
	if !strings.Contains(toolErr.Output, "cannot read") {
		t.Errorf("Expected the tool diagnostic to be kept, got %q", toolErr.Output)
	}

	batchErr := summary.Err()
	if !errors.Is(batchErr, ErrConversionFailed) || !errors.As(batchErr, &toolErr) {
		t.Errorf("Unexpected batch error %v", batchErr)
	}

	// successful conversions stay in place
	if got := listDir(t, summary.OutputDir); len(got) != 2 {
		t.Errorf("Expected 2 converted files, got %v", got)
	}
}

func TestConvertDirMissingInput(t *testing.T) {
	if _, err := New(helperHandler{}).ConvertDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestNewOOMMF(t *testing.T) {
	var cfgErr *fault.ConfigError

	if _, err := NewOOMMF("/bin/tclsh", ""); !errors.As(err, &cfgErr) {
		t.Errorf("Expected a ConfigError without a script, got %v", err)
	}
	if _, err := NewOOMMF("/bin/tclsh", filepath.Join(t.TempDir(), "oommf.tcl")); !errors.As(err, &cfgErr) {
		t.Errorf("Expected a ConfigError for a missing script, got %v", err)
	}

	script := filepath.Join(t.TempDir(), "oommf.tcl")
	writeFiles(t, filepath.Dir(script), filepath.Base(script))

	o, err := NewOOMMF("/opt/tcl/bin/tclsh", script)
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}

	cmd := o.Cmd(context.Background(), "in.omf", "out.ovf")
	want := []string{"/opt/tcl/bin/tclsh", script, "avf2ovf", "in.omf", "out.ovf", "-format", "text"}
	if strings.Join(cmd.Args, " ") != strings.Join(want, " ") {
		t.Errorf("Expected %v, got %v", want, cmd.Args)
	}
}
