// Package dataset reads and writes corpus records and training examples as
// JSON lines or Parquet, chosen by file extension.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

// Increase buffer size for long cover page texts.
const maxLineCapacity = 10 * 1024 * 1024

// Format is a supported file format.
type Format int

const (
	FormatJSONL Format = iota
	FormatParquet
)

// DetectFormat returns the format for path based on its extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".parquet":
		return FormatParquet, nil
	case ".jsonl", ".json":
		return FormatJSONL, nil
	default:
		return 0, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// Loader loads corpus records from a JSONL or Parquet file.
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every record. Malformed JSON lines are skipped with a warning.
func (l *Loader) Load() ([]corpus.Record, error) {
	return l.LoadSample(0)
}

// LoadSample loads at most limit records; limit <= 0 loads everything.
func (l *Loader) LoadSample(limit int) ([]corpus.Record, error) {
	format, err := DetectFormat(l.datasetPath)
	if err != nil {
		return nil, err
	}
	if format == FormatParquet {
		return readParquet[corpus.Record](l.datasetPath, limit)
	}
	return readJSONL[corpus.Record](l.datasetPath, limit, func(line []byte, rec *corpus.Record) error {
		return json.Unmarshal(line, rec)
	})
}

// LoadExamples loads training examples written by WriteExamples.
func LoadExamples(path string, limit int) ([]training.Example, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatParquet {
		return readParquet[training.Example](path, limit)
	}
	return readJSONL[training.Example](path, limit, func(line []byte, ex *training.Example) error {
		var row exampleLine
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		*ex = row.toExample()
		return nil
	})
}

func readJSONL[T any](path string, limit int, decode func([]byte, *T) error) ([]T, error) {
	slog.Debug("Opening JSONL file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var rows []T
	scanner := bufio.NewScanner(file)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var row T
		if err := decode(line, &row); err != nil {
			// Skip malformed lines but continue
			slog.Warn("Skipping malformed JSON line", "path", path, "line", lineNum, "error", err)
			continue
		}
		rows = append(rows, row)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_rows", len(rows), "total_lines", lineNum)
	return rows, nil
}

func readParquet[T any](path string, limit int) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	var rows []T
	batch := make([]T, 128)
	batchNum := 0

	for limit <= 0 || len(rows) < limit {
		n, err := reader.Read(batch)
		if n > 0 {
			batchNum++
			if limit > 0 && n > limit-len(rows) {
				n = limit - len(rows)
			}
			rows = append(rows, batch[:n]...)
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(rows))
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet file", "total_rows", len(rows), "total_batches", batchNum)
	return rows, nil
}
