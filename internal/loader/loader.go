// Package loader reads magnetization samples written by the micromagnetic
// solver: the ODT data table of a ring-down run and directories of OVF
// field snapshots.
package loader

import (
	"io"
	"log/slog"
	"runtime"
)

// Loader reads solver output. It is safe for concurrent use.
type Loader struct {
	workers int
	logger  *slog.Logger
}

// WithLogger sets the logger for the loader
func WithLogger(logger *slog.Logger) func(l *Loader) {
	return func(l *Loader) {
		l.logger = logger.With(slog.String("component", "loader"))
	}
}

// WithWorkers sets the number of snapshot files parsed concurrently
func WithWorkers(n int) func(l *Loader) {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// New creates a new Loader instance with a discard logger
func New(options ...func(l *Loader)) *Loader {
	l := Loader{
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}
