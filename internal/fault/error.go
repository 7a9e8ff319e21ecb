package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when no usable sample was loaded.
	ErrEmptySeries = errors.New("no valid samples found")

	// ErrShortSeries is returned when a series is too short for the requested transform.
	ErrShortSeries = errors.New("series is too short")
)

// ConfigError is a custom error type for configuration errors
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// ParseError reports a malformed input file or record. It is recoverable:
// callers log it and skip the offending file or line.
type ParseError struct {
	Path string
	Line int // 1-based, zero when the error is not tied to a line
	Err  error
}

func NewParseError(path string, line int, err error) *ParseError {
	return &ParseError{Path: path, Line: line, Err: err}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DegenerateSeriesError is returned together with a fallback sample spacing
// when the timestamps do not define one. The fallback is an approximation.
type DegenerateSeriesError struct {
	Distinct int     // Number of distinct timestamps found
	Fallback float64 // Spacing used instead, seconds
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("degenerate series: %d distinct timestamps, assuming a sample spacing of %g s", e.Distinct, e.Fallback)
}

// ExternalToolError reports a failed invocation of an external program for
// a single input file.
type ExternalToolError struct {
	Input  string
	Output string // Diagnostic output of the tool, may be empty
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("converting %s: %v: %s", e.Input, e.Err, e.Output)
	}
	return fmt.Sprintf("converting %s: %v", e.Input, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
