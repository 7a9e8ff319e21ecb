package spectrum

import (
	"context"
	"fmt"
	"math/cmplx"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// SingleSided transforms a real series sampled every dt seconds. It returns
// the bins [0, N/2) with their frequency in Hz and magnitude scaled by 2/N,
// the amplitude of a sinusoid that falls exactly on a bin. Any N >= 2 works.
func SingleSided(samples []float64, dt float64) (freqs, mags []float64, err error) {
	n := len(samples)
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d samples", fault.ErrShortSeries, n)
	}
	if dt <= 0 {
		return nil, nil, fmt.Errorf("invalid sample spacing: %g", dt)
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, samples)

	half := n / 2
	freqs = make([]float64, half)
	mags = make([]float64, half)

	scale := 2 / float64(n)
	for k := 0; k < half; k++ {
		freqs[k] = fft.Freq(k) / dt
		mags[k] = scale * cmplx.Abs(coeff[k])
	}

	return freqs, mags, nil
}

// PositiveBins returns the number of strictly positive frequency bins of an
// N point transform: 1 .. (N-1)/2.
func PositiveBins(n int) int {
	if n < 2 {
		return 0
	}
	return (n - 1) / 2
}

// Analyze detrends every component of the series and computes its
// single-sided spectrum together with the derivative of magnitude with
// respect to frequency in GHz.
func Analyze(series *magnetization.Series, dt float64) (*Analysis, error) {
	a := Analysis{
		Times:   series.Times,
		Spacing: dt,
	}

	for _, c := range magnetization.Components {
		a.Detrended[c] = Detrend(series.Component(c))

		freqs, mags, err := SingleSided(a.Detrended[c], dt)
		if err != nil {
			return nil, fmt.Errorf("transforming %s: %w", c, err)
		}
		a.Frequencies = freqs
		a.Magnitudes[c] = mags
	}

	ghz := a.FrequenciesGHz()
	for _, c := range magnetization.Components {
		d, err := Gradient(a.Magnitudes[c], ghz)
		if err != nil {
			return nil, fmt.Errorf("differentiating %s: %w", c, err)
		}
		a.Derivatives[c] = d
	}

	return &a, nil
}

// FieldSpectrum holds the magnitude spectrum of every cell and component of
// a field series at the strictly positive frequency bins.
type FieldSpectrum struct {
	Grid        magnetization.Grid
	Frequencies []float64 // Hz, ascending

	// magnitudes is laid out as (bin, z, y, x, component)
	magnitudes []float64
}

// Magnitude returns the spectral magnitude of one cell component at a bin.
func (s *FieldSpectrum) Magnitude(bin, z, y, x int, c magnetization.Component) float64 {
	return s.magnitudes[bin*s.Grid.Values()+s.Grid.Offset(z, y, x)+int(c)]
}

// Bin returns the flat (z, y, x, component) magnitude slice of one bin. The
// slice aliases the spectrum.
func (s *FieldSpectrum) Bin(bin int) []float64 {
	stride := s.Grid.Values()
	return s.magnitudes[bin*stride : (bin+1)*stride]
}

// SpatialOption configures Spatial.
type SpatialOption func(*spatialConfig)

type spatialConfig struct {
	workers int
}

// WithWorkers sets the number of goroutines transforming cells.
func WithWorkers(n int) SpatialOption {
	return func(c *spatialConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Spatial transforms the time series of every cell and component
// independently. Each series is detrended first; only bins with strictly
// positive frequency are kept and magnitudes are not rescaled. Cells are
// split across workers and written by index, so the result does not depend
// on scheduling.
func Spatial(ctx context.Context, series *magnetization.FieldSeries, dt float64, opts ...SpatialOption) (*FieldSpectrum, error) {
	cfg := spatialConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := series.Len()
	bins := PositiveBins(n)
	if bins == 0 {
		return nil, fmt.Errorf("%w: %d snapshots leave no positive frequency bin", fault.ErrShortSeries, n)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("invalid sample spacing: %g", dt)
	}

	stride := series.Grid.Values()
	for t, snap := range series.Snapshots {
		if len(snap) != stride {
			return nil, fmt.Errorf("snapshot %d has %d values, grid needs %d", t, len(snap), stride)
		}
	}

	s := FieldSpectrum{
		Grid:        series.Grid,
		Frequencies: make([]float64, bins),
		magnitudes:  make([]float64, bins*stride),
	}

	for k := 1; k <= bins; k++ {
		s.Frequencies[k-1] = float64(k) / (float64(n) * dt)
	}

	workers := min(cfg.workers, stride)
	chunk := (stride + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < stride; start += chunk {
		start := start
		end := min(start+chunk, stride)

		g.Go(func() error {
			fft := fourier.NewFFT(n)
			seq := make([]float64, n)
			coeff := make([]complex128, n/2+1)

			for v := start; v < end; v++ {
				if v%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				for t := 0; t < n; t++ {
					seq[t] = series.Snapshots[t][v]
				}
				DetrendInPlace(seq)
				fft.Coefficients(coeff, seq)

				for k := 1; k <= bins; k++ {
					s.magnitudes[(k-1)*stride+v] = cmplx.Abs(coeff[k])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &s, nil
}
