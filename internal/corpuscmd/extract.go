package corpuscmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/thesis-ner/internal/config"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/dataset"
	"github.com/lehigh-university-libraries/thesis-ner/internal/mets"
	"github.com/lehigh-university-libraries/thesis-ner/internal/ocr"
)

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	var indexPath string
	var filesRoot string
	var outputPath string
	var engine string
	var page int

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Attach METS metadata and cover page text to crawled records",
		Long: `Extract turns the crawl index into the record file consumed by prepare.

For every indexed record the stored METS document is parsed for title,
abstract, subjects, authors, advisors and issue date, and the cover page of
the stored PDF is converted to text with the configured OCR engine:

  tesseract  rasterize with pdftoppm, remove stamps and logos, run tesseract
  pdftext    read the PDF text layer, falling back to tesseract
  llm        rasterize and clean as above, transcribe with a vision model

Records whose text cannot be extracted are kept without text and counted as
missing by prepare.`,
		Example: `  # Extract with tesseract
  thesisner corpus extract --index data/index.jsonl --output data/records.jsonl

  # Use the PDF text layer where there is one
  thesisner corpus extract --engine pdftext

  # Transcribe with a local vision model
  OLLAMA_MODEL=llava thesisner corpus extract --engine llm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if engine != "" {
				cfg.OCR.Engine = engine
			}
			if cmd.Flags().Changed("page") {
				cfg.OCR.Page = page
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return executeExtract(cmd.Context(), cfg, indexPath, filesRoot, outputPath, os.Stderr)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "data/index.jsonl", "Path to the crawl index")
	cmd.Flags().StringVar(&filesRoot, "files", "data/files", "Directory of the downloaded files store")
	cmd.Flags().StringVar(&outputPath, "output", "data/records.jsonl", "Output records file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&engine, "engine", "", "OCR engine (tesseract, pdftext or llm), overrides the config")
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page index of the cover page")

	return cmd
}

func executeExtract(ctx context.Context, cfg *config.Config, indexPath, filesRoot, outputPath string, progress io.Writer) error {
	if _, err := os.Stat(indexPath); err != nil {
		return fmt.Errorf("index not found: %s (run 'corpus crawl' first)", indexPath)
	}
	records, err := loadIndex(indexPath)
	if err != nil {
		return err
	}
	slog.Info("Loaded index", "path", indexPath, "records", len(records))

	extractor, err := ocr.New(cfg.OCR)
	if err != nil {
		return err
	}

	extracted, err := extractRecords(ctx, records, filesRoot, extractor, cfg.OCR, cfg.Workers, progress)
	if err != nil {
		return err
	}

	withText := 0
	for _, rec := range extracted {
		if rec.HasCoverPageText() {
			withText++
		}
	}

	if err := dataset.WriteRecords(outputPath, extracted); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	slog.Info("Extraction finished", "records", len(extracted), "with_text", withText, "output", outputPath)
	fmt.Printf("Extracted cover page text for %d of %d records into %s\n", withText, len(extracted), outputPath)
	return nil
}

// extractRecords enriches records concurrently and returns them in input
// order. A cancelled context stops the run and nothing is returned.
func extractRecords(ctx context.Context, records []corpus.Record, filesRoot string, extractor ocr.Extractor, cfg config.OCRConfig, workers int, progress io.Writer) ([]corpus.Record, error) {
	if workers <= 0 {
		workers = 1
	}
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Extracting cover pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]corpus.Record, len(records))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

schedule:
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case semaphore <- struct{}{}:
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = extractRecord(ctx, records[idx], filesRoot, extractor, cfg)
			_ = bar.Add(1)
		}(i)
	}
	wg.Wait()
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func extractRecord(ctx context.Context, rec corpus.Record, filesRoot string, extractor ocr.Extractor, cfg config.OCRConfig) corpus.Record {
	rec.ResolveFiles(filesRoot)

	if rec.XMLFile == "" {
		slog.Warn("Record has no metadata file", "record", rec.ID())
	} else {
		meta, err := mets.ParseFile(rec.XMLFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Warn("Metadata file missing", "record", rec.ID(), "path", rec.XMLFile)
		case err != nil:
			slog.Warn("Metadata parsed partially", "record", rec.ID(), "path", rec.XMLFile, "error", err)
			meta.Apply(&rec)
		default:
			meta.Apply(&rec)
		}
	}

	rec.CoverPageText = nil
	if rec.PDFFile == "" {
		slog.Warn("Record has no PDF file", "record", rec.ID())
		return rec
	}

	pageCtx := ctx
	if timeout := cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := extractor.ExtractText(pageCtx, rec.PDFFile, cfg.Page)
	if err != nil {
		slog.Warn("Failed to extract cover page text", "record", rec.ID(), "pdf", rec.PDFFile, "error", err)
		return rec
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("Cover page has no text", "record", rec.ID(), "pdf", rec.PDFFile)
		return rec
	}

	slog.Debug("Extracted cover page", "record", rec.ID(), "chars", len(text), "duration", time.Since(start))
	rec.CoverPageText = &text
	return rec
}
