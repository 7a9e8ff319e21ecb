package storage

import (
	"time"

	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
	"github.com/roman-kulish/fmr-analysis/internal/spectrum"
)

// Run is one stored ringdown analysis.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Field     string    `json:"field"`   // Field label, e.g. "0.5 T"
	Source    string    `json:"source"`  // Table file the series was read from
	Samples   int       `json:"samples"` // Series length after trimming
	Spacing   float64   `json:"spacing"` // Sample spacing in seconds
	Config    *string   `json:"config,omitempty"`
}

// SpectrumPoint is one bin of a stored spectrum.
type SpectrumPoint struct {
	Component  magnetization.Component `json:"component"`
	Bin        int                     `json:"bin"`
	Frequency  float64                 `json:"frequency"` // Hz
	Power      float64                 `json:"power"`
	Derivative float64                 `json:"derivative"`
}

// PeakRecord is a stored resonance peak of one component.
type PeakRecord struct {
	Component magnetization.Component `json:"component"`
	spectrum.Peak
}
