package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

func odtRow(i int) string {
	fields := make([]string, ODTColumns)
	for c := range fields {
		fields[c] = "0"
	}
	fields[ColumnMx] = fmt.Sprintf("%d", i)
	fields[ColumnMy] = fmt.Sprintf("%d", 10*i)
	fields[ColumnMz] = fmt.Sprintf("%d", 100*i)
	fields[ColumnSimulationTime] = fmt.Sprintf("%d.0e-12", i)
	return strings.Join(fields, " ")
}

func TestReadODT(t *testing.T) {
	input := strings.Join([]string{
		"# ODT 1.0",
		"# Table Start",
		"# Columns: Oxs_CGEvolve::Total energy ...",
		odtRow(0),
		"",
		odtRow(1) + " # trailing comment",
		"1 2 3", // wrong column count
		strings.Replace(odtRow(2), "0", "x", 1),
		"   " + odtRow(3) + "   ",
		"# Table End",
	}, "\n")

	records, err := New().ReadODT(strings.NewReader(input), "test.odt")
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, want := range []float64{0, 1, 3} {
		if records[i][ColumnMx] != want {
			t.Errorf("record %d: expected mx %v, got %v", i, want, records[i][ColumnMx])
		}
	}
}

func TestRingdownTrimsBoundaryRecords(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# Table Start\n")
	for i := 0; i < 10; i++ {
		sb.WriteString(odtRow(i))
		sb.WriteByte('\n')
	}
	sb.WriteString("# Table End\n")

	path := filepath.Join(t.TempDir(), "ringdown.odt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	series, err := New().Ringdown(path)
	if err != nil {
		t.Fatalf("Failed to load series: %v", err)
	}

	if series.Len() != 8 {
		t.Fatalf("Expected 8 samples after trimming, got %d", series.Len())
	}
	if got := series.Component(magnetization.Mx)[0]; got != 1 {
		t.Errorf("Expected first mx sample 1, got %v", got)
	}
	if got := series.Component(magnetization.Mz)[7]; got != 800 {
		t.Errorf("Expected last mz sample 800, got %v", got)
	}
	if got := series.Times[7]; got != 8e-12 {
		t.Errorf("Expected last time 8e-12, got %v", got)
	}
}

func TestSeriesFromRecordsErrors(t *testing.T) {
	testCases := []struct {
		name    string
		records int
		want    error
	}{
		{"empty", 0, fault.ErrEmptySeries},
		{"too short to trim", 3, fault.ErrShortSeries},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SeriesFromRecords(make([]Record, tc.records))
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}
