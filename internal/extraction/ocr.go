package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Recognizer turns a rendered page image into text.
type Recognizer interface {
	RecognizePage(ctx context.Context, path string, page int) (string, error)
}

// TesseractRecognizer rasterizes a page with pdftoppm and reads it with tesseract.
type TesseractRecognizer struct {
	runner   CommandRunner
	dpi      int
	language string
}

// NewTesseractRecognizer creates a recognizer. dpi defaults to 200 and language to "eng".
func NewTesseractRecognizer(runner CommandRunner, dpi int, language string) *TesseractRecognizer {
	if runner == nil {
		runner = ExecRunner{}
	}
	if dpi <= 0 {
		dpi = 200
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{runner: runner, dpi: dpi, language: language}
}

// RecognizePage renders a single 1-based page to PNG in a temporary directory and
// returns the recognized text.
func (t *TesseractRecognizer) RecognizePage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docquery-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	n := strconv.Itoa(page)
	prefix := filepath.Join(tmpDir, "page")
	if _, err := t.runner.Run(ctx, "pdftoppm",
		"-f", n, "-l", n,
		"-r", strconv.Itoa(t.dpi),
		"-singlefile", "-png",
		path, prefix,
	); err != nil {
		return "", fmt.Errorf("failed to render page %d: %w", page, err)
	}

	// -singlefile writes exactly prefix.png
	out, err := t.runner.Run(ctx, "tesseract", prefix+".png", "stdout", "-l", t.language)
	if err != nil {
		return "", fmt.Errorf("failed to recognize page %d: %w", page, err)
	}
	return strings.TrimSpace(string(out)), nil
}
