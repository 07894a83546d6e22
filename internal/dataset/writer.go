package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/thesis-ner/internal/align"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

// entity is a span serialized as [start, end, label], the shape most NER
// trainers accept.
type entity align.Span

func (e entity) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Start, e.End, e.Label})
}

func (e *entity) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("entity must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Start); err != nil {
		return fmt.Errorf("invalid entity start: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.End); err != nil {
		return fmt.Errorf("invalid entity end: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Label); err != nil {
		return fmt.Errorf("invalid entity label: %w", err)
	}
	return nil
}

type exampleLine struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Entities []entity `json:"entities"`
}

func newExampleLine(ex training.Example) exampleLine {
	entities := make([]entity, len(ex.Spans))
	for i, s := range ex.Spans {
		entities[i] = entity(s)
	}
	return exampleLine{ID: ex.ID, Text: ex.Text, Entities: entities}
}

func (l exampleLine) toExample() training.Example {
	spans := make([]align.Span, len(l.Entities))
	for i, e := range l.Entities {
		spans[i] = align.Span(e)
	}
	return training.Example{ID: l.ID, Text: l.Text, Spans: spans}
}

// WriteExamples writes training examples to path, replacing any existing file.
func WriteExamples(path string, examples []training.Example) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatParquet {
		return writeParquet(path, examples)
	}
	lines := make([]exampleLine, len(examples))
	for i, ex := range examples {
		lines[i] = newExampleLine(ex)
	}
	return writeJSONL(path, lines)
}

// WriteRecords writes corpus records to path, replacing any existing file.
func WriteRecords(path string, records []corpus.Record) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatParquet {
		return writeParquet(path, records)
	}
	return writeJSONL(path, records)
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

func writeJSONL[T any](path string, rows []T) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	for i := range rows {
		if err := encoder.Encode(rows[i]); err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func writeParquet[T any](path string, rows []T) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// JSONLWriter appends JSON lines to a file. It is safe for concurrent use and
// flushes after every line, so an interrupted run leaves a readable file.
type JSONLWriter struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// OpenJSONL opens path for appending, creating it when needed.
func OpenJSONL(path string) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	return &JSONLWriter{file: file, encoder: encoder}, nil
}

// Write appends v as one line.
func (w *JSONLWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to append line: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *JSONLWriter) Close() error {
	return w.file.Close()
}
