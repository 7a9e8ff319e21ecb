//go:build !windows

package converter

import (
	"fmt"
	"os/exec"
)

// FindRuntime looks the binary up on PATH.
func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		return "", fmt.Errorf("failed to find binary '%s': %w", runtime, err)
	}

	return binPath, nil
}
