package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"

	"github.com/lehigh-university-libraries/thesis-ner/internal/imaging"
)

// Tesseract runs the tesseract CLI. TESSERACT_PATH overrides the executable.
type Tesseract struct {
	path     string
	language string
}

// NewTesseract returns a Tesseract engine for language (default "spa").
func NewTesseract(language string) *Tesseract {
	path := os.Getenv("TESSERACT_PATH")
	if path == "" {
		path = "tesseract"
	}
	if language == "" {
		language = "spa"
	}
	return &Tesseract{path: path, language: language}
}

// Recognize implements Engine. The page is piped to tesseract as PNG.
func (t *Tesseract) Recognize(ctx context.Context, page image.Image) (string, error) {
	var in bytes.Buffer
	if err := imaging.EncodePNG(&in, page); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = &in
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}
