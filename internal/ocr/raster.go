package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/lehigh-university-libraries/thesis-ner/internal/imaging"
)

// RasterExtractor renders a page with pdftoppm, removes stamps and logos and
// hands the cleaned page to an Engine.
type RasterExtractor struct {
	dpi             int
	minAreaFraction float64
	engine          Engine
	pdftoppm        string
}

// NewRasterExtractor creates a raster extractor. PDFTOPPM_PATH overrides the
// pdftoppm executable.
func NewRasterExtractor(dpi int, minAreaFraction float64, engine Engine) *RasterExtractor {
	pdftoppm := os.Getenv("PDFTOPPM_PATH")
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &RasterExtractor{
		dpi:             dpi,
		minAreaFraction: minAreaFraction,
		engine:          engine,
		pdftoppm:        pdftoppm,
	}
}

// ExtractText implements Extractor.
func (e *RasterExtractor) ExtractText(ctx context.Context, documentPath string, pageIndex int) (string, error) {
	if _, err := os.Stat(documentPath); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "thesis-ner-page-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	page := strconv.Itoa(pageIndex + 1)
	cmd := exec.CommandContext(ctx, e.pdftoppm,
		"-f", page, "-l", page,
		"-r", strconv.Itoa(e.dpi),
		"-png", "-singlefile",
		documentPath, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to rasterize page %d: %w (%s)", pageIndex, err, output)
	}

	img, err := imaging.DecodeFile(prefix + ".png")
	if err != nil {
		return "", err
	}

	cleaned, result := imaging.RemoveArtifacts(img, e.minAreaFraction)
	slog.Debug("Cleaned page image",
		"document", documentPath,
		"threshold", result.Threshold,
		"components", result.Components,
		"removed", result.Removed)

	return e.engine.Recognize(ctx, cleaned)
}
