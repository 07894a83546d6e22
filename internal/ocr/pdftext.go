package ocr

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor reads the embedded text layer of a PDF page. Scanned
// theses usually have none, so it is normally chained before an OCR engine.
type PDFTextExtractor struct{}

// NewPDFTextExtractor returns a text layer extractor.
func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

// ExtractText implements Extractor.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, documentPath string, pageIndex int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(documentPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if pageIndex < 0 || pageIndex >= r.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", pageIndex, r.NumPage())
	}

	p := r.Page(pageIndex + 1)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d is empty", pageIndex)
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}
	return joinRows(rows), nil
}

// joinRows writes rows top to bottom, one line each. PDF y coordinates grow
// upwards.
func joinRows(rows pdf.Rows) string {
	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	var buf bytes.Buffer
	for _, row := range sorted {
		words := make([]pdf.Text, len(row.Content))
		copy(words, row.Content)
		sort.SliceStable(words, func(i, j int) bool {
			return words[i].X < words[j].X
		})
		for i, w := range words {
			buf.WriteString(w.S)
			if i < len(words)-1 {
				next := words[i+1]
				fontSize := w.FontSize
				if fontSize <= 0 {
					fontSize = 12
				}
				if next.X-(w.X+w.W) > fontSize*0.2 {
					buf.WriteString(" ")
				}
			}
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
