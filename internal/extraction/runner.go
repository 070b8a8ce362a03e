package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", name, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}

// Tools lists the external binaries used by the poppler reader and the OCR fallback.
var Tools = []string{"pdfinfo", "pdftotext", "pdftoppm", "tesseract"}

// CheckTools reports, for each external tool, whether it is on PATH.
func CheckTools() map[string]bool {
	status := make(map[string]bool, len(Tools))
	for _, tool := range Tools {
		_, err := exec.LookPath(tool)
		status[tool] = err == nil
	}
	return status
}

// InstallInstructions returns a short hint for installing the external tools.
func InstallInstructions() string {
	return `PDF tools are provided by poppler and tesseract:
  macOS:         brew install poppler tesseract
  Debian/Ubuntu: apt install poppler-utils tesseract-ocr
  Fedora:        dnf install poppler-utils tesseract`
}
