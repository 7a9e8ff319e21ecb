package storage

import (
	"context"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// Store keeps the results of ringdown analyses so that runs at different
// bias fields can be compared later. All write operations are atomic.
type Store interface {
	// CreateRun registers a new analysis and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - field: Bias field label of the run, e.g. "0.5 T"
	//   - source: Path of the table file the series came from
	//   - samples, spacing: Length and sample spacing of the analysed series
	//   - config: Optional run configuration. Can be string, []byte, or JSON-serializable object
	CreateRun(ctx context.Context, field, source string, samples int, spacing float64, config any) (runID string, err error)

	// Run retrieves a run by its identifier.
	Run(ctx context.Context, runID string) (*Run, error)

	// Runs lists every stored run in creation order.
	Runs(ctx context.Context) ([]*Run, error)

	// StoreAnalysis saves the spectrum and derivative of every component.
	StoreAnalysis(ctx context.Context, runID string, a *spectrum.Analysis) error

	// StorePeaks saves the detected peaks of every component.
	StorePeaks(ctx context.Context, runID string, peaks [3][]spectrum.Peak) error

	// ReadSpectrum returns stored spectrum bins ordered by component and
	// frequency. Options narrow the result to a component or band.
	ReadSpectrum(ctx context.Context, runID string, opts ...QueryOption) ([]SpectrumPoint, error)

	// ReadPeaks returns stored peaks ordered by component and frequency.
	ReadPeaks(ctx context.Context, runID string, opts ...QueryOption) ([]PeakRecord, error)

	// Close flushes pending work, builds indexes and releases connections.
	Close() error
}

var _ Store = (*SqliteStore)(nil)

// QueryOption narrows a read to a component or frequency band.
type QueryOption func(*query)

type query struct {
	component *magnetization.Component
	minFreq   *float64
	maxFreq   *float64
}

// WithComponent keeps rows of a single component.
func WithComponent(c magnetization.Component) QueryOption {
	return func(q *query) {
		q.component = &c
	}
}

// WithMinFreq excludes rows below f Hz.
func WithMinFreq(f float64) QueryOption {
	return func(q *query) {
		q.minFreq = &f
	}
}

// WithMaxFreq excludes rows above f Hz.
func WithMaxFreq(f float64) QueryOption {
	return func(q *query) {
		q.maxFreq = &f
	}
}

// WithFreqRange is WithMinFreq and WithMaxFreq in one.
func WithFreqRange(minFreq, maxFreq float64) QueryOption {
	return func(q *query) {
		q.minFreq = &minFreq
		q.maxFreq = &maxFreq
	}
}

// build appends the filters to base and returns the statement with its
// arguments.
func (q *query) build(base, runID string) (string, []any) {
	stmt := base
	args := []any{runID}

	if q.component != nil {
		stmt += "\n    AND component = ?"
		args = append(args, q.component.String())
	}
	if q.minFreq != nil {
		stmt += "\n    AND frequency >= ?"
		args = append(args, *q.minFreq)
	}
	if q.maxFreq != nil {
		stmt += "\n    AND frequency <= ?"
		args = append(args, *q.maxFreq)
	}

	return stmt + "\nORDER BY component, frequency", args
}

func newQuery(opts []QueryOption) *query {
	q := &query{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}
