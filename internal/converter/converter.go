// Package converter runs an external field-file conversion tool over every
// matching file of a directory. Each file is converted independently: a
// failure is recorded for that file and the batch carries on.
package converter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

const (
	// OutputDir is the subdirectory of the input directory receiving converted files.
	OutputDir = "converted"

	DefaultInputExt  = ".omf"
	DefaultOutputExt = ".ovf"
)

// ErrConversionFailed is wrapped by Summary.Err when at least one file failed.
var ErrConversionFailed = errors.New("conversion failed")

// Handler builds the command converting one file.
type Handler interface {
	Cmd(ctx context.Context, input, output string) *exec.Cmd
	Tool() string
}

// WithLogger sets the logger for the converter
func WithLogger(logger *slog.Logger) func(c *Converter) {
	return func(c *Converter) {
		c.logger = logger.With(slog.String("tool", c.handler.Tool()))
	}
}

// WithWorkers sets the number of conversions running at the same time
func WithWorkers(n int) func(c *Converter) {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithExtensions overrides the input and output file extensions
func WithExtensions(input, output string) func(c *Converter) {
	return func(c *Converter) {
		c.inputExt, c.outputExt = input, output
	}
}

// Converter converts a directory of field files with an external tool.
type Converter struct {
	handler   Handler
	workers   int
	inputExt  string
	outputExt string
	logger    *slog.Logger
}

// New creates a new Converter instance with a discard logger
func New(h Handler, options ...func(c *Converter)) *Converter {
	c := Converter{
		handler:   h,
		workers:   runtime.NumCPU(),
		inputExt:  DefaultInputExt,
		outputExt: DefaultOutputExt,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Result is the outcome of converting one file.
type Result struct {
	Input  string
	Output string
	Err    error // *fault.ExternalToolError when the tool failed
}

// Summary collects the outcome of a batch. Converted files stay on disk
// whatever happened to the others.
type Summary struct {
	OutputDir string
	Results   []Result // Sorted by input path
}

// Converted returns the number of successful conversions.
func (s *Summary) Converted() int {
	var n int
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (s *Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins the errors of every failed conversion, or returns nil.
func (s *Summary) Err() error {
	failed := s.Failed()
	if len(failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, r.Err)
	}
	return fmt.Errorf("%w: %d of %d files: %w", ErrConversionFailed, len(failed), len(s.Results), errors.Join(errs...))
}

// ConvertDir converts every regular file of dir with the input extension into
// dir/converted, keeping the base name and swapping the extension. The
// returned error is only set when the batch could not start; per-file
// failures are reported through the Summary.
func (c *Converter) ConvertDir(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	outDir := filepath.Join(dir, OutputDir)
	if err = os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), c.inputExt) {
			continue
		}
		inputs = append(inputs, e.Name())
	}
	sort.Strings(inputs)

	summary := Summary{
		OutputDir: outDir,
		Results:   make([]Result, len(inputs)),
	}

	var mu sync.Mutex // serialises log output of the tool

	g := errgroup.Group{}
	g.SetLimit(c.workers)
	for i, name := range inputs {
		i := i
		in := filepath.Join(dir, name)
		out := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+c.outputExt)

		g.Go(func() error {
			summary.Results[i] = Result{Input: in, Output: out}

			if err := ctx.Err(); err != nil {
				summary.Results[i].Err = &fault.ExternalToolError{Input: in, Err: err}
				return nil
			}

			stderr, err := c.convert(ctx, in, out)

			mu.Lock()
			c.logStderr(in, stderr)
			mu.Unlock()

			if err != nil {
				summary.Results[i].Err = err
				c.logger.Error("conversion failed", slog.String("input", in), slog.String("error", err.Error()))
				return nil
			}

			c.logger.Info("converted", slog.String("input", in), slog.String("output", out))
			return nil
		})
	}
	_ = g.Wait()

	return &summary, nil
}

func (c *Converter) convert(ctx context.Context, in, out string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := c.handler.Cmd(ctx, in, out)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.Bytes(), &fault.ExternalToolError{
			Input:  in,
			Output: lastLine(stderr.Bytes(), stdout.Bytes()),
			Err:    fmt.Errorf("command exited with error: %w", err),
		}
	}

	if _, err := os.Stat(out); err != nil {
		return stderr.Bytes(), &fault.ExternalToolError{
			Input: in,
			Err:   fmt.Errorf("no output produced: %w", err),
		}
	}

	return stderr.Bytes(), nil
}

// logStderr forwards the diagnostic output of the tool line by line.
func (c *Converter) logStderr(in string, stderr []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.logger.Warn(fmt.Sprintf("%s >> %s", c.handler.Tool(), line), slog.String("input", in))
	}
}

func lastLine(outputs ...[]byte) string {
	for _, out := range outputs {
		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		if l := strings.TrimSpace(lines[len(lines)-1]); l != "" {
			return l
		}
	}
	return ""
}
