package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

const (
	SpectrumSheet = "Spectrum"
	PeaksSheet    = "Peaks"
)

// PeaksHeader is the header row of the peaks sheet.
var PeaksHeader = []string{"Component", "Frequency (GHz)", "Peak Power"}

// WriteWorkbook writes the spectrum table and the detected peaks as an
// Excel workbook with one sheet each.
func WriteWorkbook(w io.Writer, a *spectrum.Analysis, peaks [3][]spectrum.Peak) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if err = f.SetSheetName("Sheet1", SpectrumSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err = setRow(f, SpectrumSheet, 1, toCells(SpectrumHeader)); err != nil {
		return err
	}
	for i, row := range spectrumRows(a) {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err = setRow(f, SpectrumSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err = f.NewSheet(PeaksSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err = setRow(f, PeaksSheet, 1, toCells(PeaksHeader)); err != nil {
		return err
	}
	row := 2
	for _, c := range magnetization.Components {
		for _, p := range peaks[c] {
			if err = setRow(f, PeaksSheet, row, []any{c.String(), p.Frequency / spectrum.HzPerGHz, p.Magnitude}); err != nil {
				return err
			}
			row++
		}
	}

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err = f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(header []string) []any {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return cells
}
