package converter

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
)

const (
	Runtime = "tclsh"
	Tool    = "avf2ovf"
)

// OOMMF runs the avf2ovf application of the OOMMF launcher to rewrite
// vector field files as text OVF.
type OOMMF struct {
	binPath string
	script  string
	format  string
}

// NewOOMMF creates an avf2ovf handler. tclsh may be empty, in which case the
// interpreter is looked up like any other runtime. script is the absolute
// path of oommf.tcl.
func NewOOMMF(tclsh, script string) (*OOMMF, error) {
	if script == "" {
		return nil, fault.NewConfigError("oommf: launcher script path is required")
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fault.NewConfigError(fmt.Sprintf("oommf: launcher script not found: %s", script))
	}

	if tclsh == "" {
		binPath, err := FindRuntime(Runtime)
		if err != nil {
			return nil, fmt.Errorf("error finding runtime: %w", err)
		}
		tclsh = binPath
	}

	return &OOMMF{binPath: tclsh, script: script, format: "text"}, nil
}

// Cmd returns an exec.Cmd converting input into output
func (o *OOMMF) Cmd(ctx context.Context, input, output string) *exec.Cmd {
	return exec.CommandContext(ctx, o.binPath, o.script, Tool, input, output, "-format", o.format)
}

func (o *OOMMF) Tool() string {
	return Tool
}
