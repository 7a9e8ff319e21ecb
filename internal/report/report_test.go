package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

func testAnalysis() *spectrum.Analysis {
	return &spectrum.Analysis{
		Frequencies: []float64{0, 10e9, 20e9},
		Magnitudes:  [3][]float64{{0, 0.5, 0.1}, {0, 0.2, 0.3}, {0, 0, 0}},
		Derivatives: [3][]float64{{0.05, 0.005, -0.04}, {0.02, 0.015, 0.01}, {0, 0, 0}},
	}
}

func testPeaks() [3][]spectrum.Peak {
	return [3][]spectrum.Peak{
		{{Index: 1, Frequency: 39.54e9, Magnitude: 0.01234}},
		nil,
		{{Index: 2, Frequency: 41.687e9, Magnitude: 3.2e-5}, {Index: 5, Frequency: 44.55e9, Magnitude: 1e-4}},
	}
}

func TestWriteSpectrumCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSpectrumCSV(&buf, testAnalysis()); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("Expected header and 3 rows, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(SpectrumHeader, ",") {
		t.Errorf("Unexpected header %v", records[0])
	}
	if want := []string{"10", "0.5", "0.005", "0.2", "0.015", "0", "0"}; strings.Join(records[2], ",") != strings.Join(want, ",") {
		t.Errorf("Expected row %v, got %v", want, records[2])
	}
}

func TestWritePeakReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePeakReport(&buf, "0.5T", testPeaks()); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}

	want := `
Peak Power and Corresponding Frequencies:
-----------------------------------------
Field Value: 0.5T
-----------------------------------------
Mx:
    Peak Power: 1.23e-02, Frequency: 39.54 GHz
My:
Mz:
    Peak Power: 3.20e-05, Frequency: 41.69 GHz
    Peak Power: 1.00e-04, Frequency: 44.55 GHz
`
	if buf.String() != want {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteResonanceReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResonanceReport(&buf, []float64{1.25e10, 2.5e10}); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}

	want := "Resonance Frequencies (Hz):\n1.2500e+10\n2.5000e+10\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, testAnalysis(), testPeaks()); err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SpectrumSheet)
	if err != nil {
		t.Fatalf("Failed to read spectrum sheet: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "Frequency (GHz)" || rows[2][1] != "0.5" {
		t.Errorf("Unexpected spectrum sheet %v", rows)
	}

	peaks, err := f.GetRows(PeaksSheet)
	if err != nil {
		t.Fatalf("Failed to read peaks sheet: %v", err)
	}
	if len(peaks) != 4 {
		t.Fatalf("Expected header and 3 peaks, got %v", peaks)
	}
	if peaks[1][0] != "Mx" || peaks[3][0] != "Mz" {
		t.Errorf("Unexpected component order %v", peaks)
	}
}
