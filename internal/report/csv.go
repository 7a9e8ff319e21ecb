// Package report writes analysis results as CSV, plain text and Excel
// workbooks.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// SpectrumHeader is the header row of the spectrum table.
var SpectrumHeader = []string{
	"Frequency (GHz)",
	"Power Spectrum Mx", "Derivative Mx",
	"Power Spectrum My", "Derivative My",
	"Power Spectrum Mz", "Derivative Mz",
}

// spectrumRows returns one row per frequency bin, frequency first, followed
// by magnitude and derivative of every component.
func spectrumRows(a *spectrum.Analysis) [][]float64 {
	ghz := a.FrequenciesGHz()

	rows := make([][]float64, len(ghz))
	for i, f := range ghz {
		row := make([]float64, 0, len(SpectrumHeader))
		row = append(row, f)
		for _, c := range magnetization.Components {
			row = append(row, a.Magnitudes[c][i], a.Derivatives[c][i])
		}
		rows[i] = row
	}
	return rows
}

// WriteSpectrumCSV writes the spectrum table of a with a header row.
func WriteSpectrumCSV(w io.Writer, a *spectrum.Analysis) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(SpectrumHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(SpectrumHeader))
	for _, row := range spectrumRows(a) {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
