package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

func testAnalysis(bins int) *spectrum.Analysis {
	a := &spectrum.Analysis{
		Spacing:     1e-12,
		Frequencies: make([]float64, bins),
	}
	for c := range a.Magnitudes {
		a.Magnitudes[c] = make([]float64, bins)
		a.Derivatives[c] = make([]float64, bins)
	}
	for i := range a.Frequencies {
		a.Frequencies[i] = float64(i) * 1e9
		for c := range a.Magnitudes {
			a.Magnitudes[c][i] = float64(c*bins + i)
			a.Derivatives[c][i] = -float64(i)
		}
	}
	return a
}

func openStore(t *testing.T) *SqliteStore {
	t.Helper()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "results.db"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	// More bins than one insert batch holds.
	const bins = 700
	a := testAnalysis(bins)

	runID, err := s.CreateRun(ctx, "0.5 T", "ringdown.odt", 2*bins, a.Spacing, map[string]float64{"threshold": 0.05})
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if err = s.StoreAnalysis(ctx, runID, a); err != nil {
		t.Fatalf("Failed to store analysis: %v", err)
	}

	peaks := [3][]spectrum.Peak{
		magnetization.Mx: {{Index: 5, Frequency: 5e9, Magnitude: 0.4}, {Index: 40, Frequency: 40e9, Magnitude: 0.1}},
		magnetization.Mz: {{Index: 12, Frequency: 12e9, Magnitude: 0.2}},
	}
	if err = s.StorePeaks(ctx, runID, peaks); err != nil {
		t.Fatalf("Failed to store peaks: %v", err)
	}

	run, err := s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to read run: %v", err)
	}
	if run.Field != "0.5 T" || run.Source != "ringdown.odt" || run.Samples != 2*bins || run.Spacing != 1e-12 {
		t.Errorf("Unexpected run: %+v", run)
	}
	if run.Config == nil || *run.Config != `{"threshold":0.05}` {
		t.Errorf("Unexpected config: %v", run.Config)
	}

	points, err := s.ReadSpectrum(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to read spectrum: %v", err)
	}
	if len(points) != 3*bins {
		t.Fatalf("Expected %d points, got %d", 3*bins, len(points))
	}
	for i, p := range points {
		c := magnetization.Component(i / bins)
		bin := i % bins
		if p.Component != c || p.Bin != bin || p.Power != a.Magnitudes[c][bin] || p.Derivative != a.Derivatives[c][bin] {
			t.Fatalf("Unexpected point %d: %+v", i, p)
		}
	}

	band, err := s.ReadSpectrum(ctx, runID, WithComponent(magnetization.My), WithFreqRange(10e9, 19e9))
	if err != nil {
		t.Fatalf("Failed to read band: %v", err)
	}
	if len(band) != 10 || band[0].Bin != 10 || band[9].Bin != 19 {
		t.Errorf("Unexpected band: %+v", band)
	}

	got, err := s.ReadPeaks(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to read peaks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 peaks, got %+v", got)
	}
	if got[0].Component != magnetization.Mx || got[0].Index != 5 || got[2].Component != magnetization.Mz {
		t.Errorf("Unexpected peak order: %+v", got)
	}

	high, err := s.ReadPeaks(ctx, runID, WithMinFreq(10e9))
	if err != nil {
		t.Fatalf("Failed to read peaks: %v", err)
	}
	if len(high) != 2 || high[0].Frequency != 40e9 || high[1].Frequency != 12e9 {
		t.Errorf("Unexpected filtered peaks: %+v", high)
	}

	low, err := s.ReadPeaks(ctx, runID, WithComponent(magnetization.Mx), WithMaxFreq(10e9))
	if err != nil {
		t.Fatalf("Failed to read peaks: %v", err)
	}
	if len(low) != 1 || low[0].Magnitude != 0.4 {
		t.Errorf("Unexpected filtered peaks: %+v", low)
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	fields := []string{"0.1 T", "0.2 T", "0.3 T"}
	for _, f := range fields {
		if _, err := s.CreateRun(ctx, f, "table.odt", 100, 1e-12, nil); err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != len(fields) {
		t.Fatalf("Expected %d runs, got %d", len(fields), len(runs))
	}
	for i, r := range runs {
		if r.Field != fields[i] {
			t.Errorf("Run %d: expected field %q, got %q", i, fields[i], r.Field)
		}
		if r.Config != nil {
			t.Errorf("Run %d: expected no config, got %q", i, *r.Config)
		}
	}
}

func TestRollbackAfterCommit(t *testing.T) {
	var err error
	rollbackWithError(fakeTx{err: sql.ErrTxDone}, &err)
	if err != nil {
		t.Errorf("Expected a rollback after commit to be ignored, got %v", err)
	}

	boom := errors.New("boom")
	rollbackWithError(fakeTx{err: boom}, &err)
	if !errors.Is(err, boom) {
		t.Errorf("Expected the rollback error, got %v", err)
	}
}

type fakeTx struct{ err error }

func (f fakeTx) Rollback() error { return f.err }
