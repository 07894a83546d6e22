package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/lehigh-university-libraries/thesis-ner/internal/imaging"
	"github.com/lehigh-university-libraries/thesis-ner/internal/providers"
)

// ProviderEngine uses an LLM with vision support as the OCR engine.
type ProviderEngine struct {
	provider providers.Provider
	model    string
}

// NewProviderEngine wraps provider.
func NewProviderEngine(provider providers.Provider, model string) *ProviderEngine {
	return &ProviderEngine{provider: provider, model: model}
}

// Recognize implements Engine.
func (e *ProviderEngine) Recognize(ctx context.Context, page image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, page); err != nil {
		return "", err
	}

	text, err := e.provider.ExtractText(ctx, providers.Config{
		Model:       e.model,
		Temperature: 0.0,
		Prompt:      buildOCRPrompt(),
		Image:       buf.Bytes(),
		ImageMIME:   "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract text with %s: %w", e.model, err)
	}

	slog.Debug("Extracted OCR text", "model", e.model, "length", len(text))
	return text, nil
}

func buildOCRPrompt() string {
	return `You are performing OCR (Optical Character Recognition) on the cover page of a Spanish-language university thesis.

Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks
- Capitalization
- Accents and punctuation
- Order of text elements

INSTRUCTIONS:
1. Read the image carefully from top to bottom
2. Transcribe every piece of visible text, including names of authors, advisors and tribunal members
3. Preserve the original line breaks
4. Do not add any interpretation, commentary, or explanations
5. Do not translate anything
6. If text is partially obscured or unclear, transcribe what you can see and use [?] for illegible portions

OUTPUT FORMAT:
Provide ONLY the extracted text. Start immediately with the transcribed text from the cover page.

Example output:
UNIVERSIDAD MAYOR DE SAN ANDRÉS
FACULTAD DE TECNOLOGÍA

PROYECTO DE GRADO

SISTEMA DE CONTROL DE RIEGO

Postulante: Juan Pérez Mamani
Tutor: Lic. Ana Quispe

LA PAZ - BOLIVIA
2015`
}
