// Package ocr extracts the text of one page of a thesis PDF, either from the
// PDF text layer or by rasterizing the page and running an OCR engine on it.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/thesis-ner/internal/config"
	"github.com/lehigh-university-libraries/thesis-ner/internal/gemini"
	"github.com/lehigh-university-libraries/thesis-ner/internal/ollama"
	"github.com/lehigh-university-libraries/thesis-ner/internal/openai"
	"github.com/lehigh-university-libraries/thesis-ner/internal/providers"
)

// ErrNoText is returned when a page yields no text at all.
var ErrNoText = errors.New("no text found on page")

// Extractor returns the text of page pageIndex (zero-based) of a document.
type Extractor interface {
	ExtractText(ctx context.Context, documentPath string, pageIndex int) (string, error)
}

// Engine recognizes the text of a page image.
type Engine interface {
	Recognize(ctx context.Context, page image.Image) (string, error)
}

// Chain tries each extractor in order and returns the first non-blank text.
type Chain []Extractor

// ExtractText implements Extractor.
func (c Chain) ExtractText(ctx context.Context, documentPath string, pageIndex int) (string, error) {
	var errs []error
	for _, e := range c {
		text, err := e.ExtractText(ctx, documentPath, pageIndex)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = ErrNoText
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Debug("Extractor produced no text", "document", documentPath, "extractor", fmt.Sprintf("%T", e), "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoText
	}
	return "", errors.Join(errs...)
}

// New builds the extractor described by cfg. The pdftext engine falls back
// to Tesseract for pages without a text layer.
func New(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Engine {
	case config.EnginePDFText:
		return Chain{
			NewPDFTextExtractor(),
			NewRasterExtractor(cfg.DPI, cfg.MinArtifactArea, NewTesseract(cfg.Language)),
		}, nil
	case config.EngineTesseract:
		return NewRasterExtractor(cfg.DPI, cfg.MinArtifactArea, NewTesseract(cfg.Language)), nil
	case config.EngineLLM:
		provider, err := NewProvider(cfg.Provider)
		if err != nil {
			return nil, err
		}
		model := cfg.Model
		if model == "" {
			model = DefaultModel(cfg.Provider)
		}
		return NewRasterExtractor(cfg.DPI, cfg.MinArtifactArea, NewProviderEngine(provider, model)), nil
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", cfg.Engine)
	}
}

// NewProvider returns the LLM provider registered under name.
func NewProvider(name string) (providers.Provider, error) {
	switch name {
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	case "gemini":
		return gemini.New(), nil
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", name)
	}
}

// DefaultModel returns the model used when none is configured, honoring the
// provider's *_MODEL environment variable.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	default:
		return ""
	}
}
