package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

const rule = "-----------------------------------------"

// WritePeakReport lists the peaks of every component: magnitude in scientific
// notation and frequency in GHz with two decimals.
func WritePeakReport(w io.Writer, field string, peaks [3][]spectrum.Peak) error {
	var sb strings.Builder

	sb.WriteString("\nPeak Power and Corresponding Frequencies:\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Field Value: %s\n", field))
	sb.WriteString(rule + "\n")

	for _, c := range magnetization.Components {
		sb.WriteString(c.String() + ":\n")
		for _, p := range peaks[c] {
			sb.WriteString(fmt.Sprintf("    Peak Power: %.2e, Frequency: %.2f GHz\n", p.Magnitude, p.Frequency/spectrum.HzPerGHz))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteResonanceReport lists frequencies in Hz, one per line.
func WriteResonanceReport(w io.Writer, freqs []float64) error {
	var sb strings.Builder

	sb.WriteString("Resonance Frequencies (Hz):\n")
	for _, f := range freqs {
		sb.WriteString(fmt.Sprintf("%.4e\n", f))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
