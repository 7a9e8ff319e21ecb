package loader

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// Positional columns of the ODT table written by the ring-down stage.
const (
	ColumnTotalEnergy = iota
	ColumnEnergyCalcCount
	ColumnMaxDmDt
	ColumnDEDt
	ColumnDeltaE
	ColumnExchangeEnergy
	ColumnMaxSpinAng
	ColumnStageMaxSpinAng
	ColumnRunMaxSpinAng
	ColumnDemagEnergy
	ColumnZeemanStaticEnergy
	ColumnIteration
	ColumnStageIteration
	ColumnStage
	ColumnMx
	ColumnMy
	ColumnMz
	ColumnLastTimeStep
	ColumnSimulationTime

	ODTColumns
)

// ODTColumnNames holds the field name of every ODT column, in order.
var ODTColumnNames = [ODTColumns]string{
	"Total_energy", "Energy_calc_count", "Max_dm_dt", "dE_dt", "Delta_E",
	"Exchange_Energy", "Max_Spin_Ang", "Stage_Max_Spin_Ang", "Run_Max_Spin_Ang",
	"Demag_Energy", "ZeemanStatic_Energy", "Iteration", "Stage_iteration", "Stage",
	"mx", "my", "mz", "Last_time_step", "Simulation_time",
}

// Record is one parsed row of the ODT table.
type Record [ODTColumns]float64

// ReadODT parses whitespace separated records. Everything from '#' to the end
// of a line is a comment. Rows that do not have exactly ODTColumns numeric
// fields are logged and skipped.
func (l *Loader) ReadODT(r io.Reader, name string) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lineNo int
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		rec, err := parseRecord(fields)
		if err != nil {
			perr := fault.NewParseError(name, lineNo, err)
			l.logger.Warn("skipping record", slog.String("error", perr.Error()))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return records, nil
}

func parseRecord(fields []string) (rec Record, err error) {
	if len(fields) != ODTColumns {
		return rec, fmt.Errorf("expected %d columns, got %d", ODTColumns, len(fields))
	}
	for i, f := range fields {
		if rec[i], err = strconv.ParseFloat(f, 64); err != nil {
			return rec, fmt.Errorf("column %s: %w", ODTColumnNames[i], err)
		}
	}
	return rec, nil
}

// Ringdown loads the magnetization components and simulation time from an
// ODT file. The first and last records are solver logging artefacts and are
// always dropped.
func (l *Loader) Ringdown(path string) (*magnetization.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ODT file: %w", err)
	}
	defer f.Close()

	records, err := l.ReadODT(f, path)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("read ODT table", slog.String("path", path), slog.Int("records", len(records)))

	return SeriesFromRecords(records)
}

// SeriesFromRecords trims the boundary records and extracts the series.
func SeriesFromRecords(records []Record) (*magnetization.Series, error) {
	if len(records) == 0 {
		return nil, fault.ErrEmptySeries
	}
	if len(records) < 4 {
		return nil, fmt.Errorf("%w: %d records, need at least 4 before trimming", fault.ErrShortSeries, len(records))
	}

	trimmed := records[1 : len(records)-1]

	s := &magnetization.Series{Times: make([]float64, len(trimmed))}
	for c := range s.Samples {
		s.Samples[c] = make([]float64, len(trimmed))
	}

	for i, rec := range trimmed {
		s.Times[i] = rec[ColumnSimulationTime]
		s.Samples[magnetization.Mx][i] = rec[ColumnMx]
		s.Samples[magnetization.My][i] = rec[ColumnMy]
		s.Samples[magnetization.Mz][i] = rec[ColumnMz]
	}

	return s, nil
}
