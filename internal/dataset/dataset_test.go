package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/thesis-ner/internal/align"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

func strPtr(s string) *string {
	return &s
}

func TestNewLoader(t *testing.T) {
	path := "./records.jsonl"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"a.jsonl", FormatJSONL, false},
		{"a.JSON", FormatJSONL, false},
		{"dir/a.parquet", FormatParquet, false},
		{"a.csv", 0, true},
		{"noext", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLoadJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "records.jsonl")

	testData := `{"record_url":"https://repo/handle/1","title":"Sistema","authors":["Doe, John"],"issued":"2015","breadcrumb":["A","Tesis","View"],"cover_page_text":"JOHN DOE"}
not json at all

{"record_url":"https://repo/handle/2","title":"Otro","cover_page_text":null}
`
	if err := os.WriteFile(jsonlPath, []byte(testData), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	records, err := NewLoader(jsonlPath).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records with the malformed line skipped, got %d", len(records))
	}
	if records[0].ID() != "https://repo/handle/1" {
		t.Errorf("Unexpected ID %s", records[0].ID())
	}
	if !records[0].HasCoverPageText() || *records[0].CoverPageText != "JOHN DOE" {
		t.Errorf("Expected cover page text, got %v", records[0].CoverPageText)
	}
	if records[1].HasCoverPageText() {
		t.Error("Expected null cover page text to stay absent")
	}
}

func TestLoadJSONLSample(t *testing.T) {
	jsonlPath := filepath.Join(t.TempDir(), "records.jsonl")
	testData := `{"record_url":"1"}
{"record_url":"2"}
{"record_url":"3"}
`
	if err := os.WriteFile(jsonlPath, []byte(testData), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	records, err := NewLoader(jsonlPath).LoadSample(2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].RecordURL != "2" {
		t.Errorf("Expected record 2, got %s", records[1].RecordURL)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	loader := NewLoader("test.txt")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
	if _, err := loader.LoadSample(10); err == nil {
		t.Error("Expected error for unsupported format in LoadSample, got nil")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/file.jsonl").Load(); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
	if _, err := NewLoader("/nonexistent/path/file.parquet").Load(); err == nil {
		t.Error("Expected error for non-existent parquet file, got nil")
	}
}

func sampleExamples() []training.Example {
	return []training.Example{
		{
			ID:   "https://repo/handle/1",
			Text: "POSTULANTE: JOHN DOE\nTUTOR: ALICE SMITH",
			Spans: []align.Span{
				{Start: 12, End: 20, Label: "AUTHORS"},
				{Start: 28, End: 39, Label: "ADVISORS"},
			},
		},
		{
			ID:    "https://repo/handle/2",
			Text:  "JOSÉ",
			Spans: []align.Span{{Start: 0, End: 4, Label: "AUTHORS"}},
		},
	}
}

func TestWriteExamplesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "train.jsonl")
	if err := WriteExamples(path, sampleExamples()); err != nil {
		t.Fatalf("WriteExamples failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	expected := `{"id":"https://repo/handle/1","text":"POSTULANTE: JOHN DOE\nTUTOR: ALICE SMITH","entities":[[12,20,"AUTHORS"],[28,39,"ADVISORS"]]}`
	if lines[0] != expected {
		t.Errorf("Expected %s, got %s", expected, lines[0])
	}

	loaded, err := LoadExamples(path, 0)
	if err != nil {
		t.Fatalf("LoadExamples failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Spans[1].Label != "ADVISORS" || loaded[1].Text != "JOSÉ" {
		t.Errorf("Unexpected examples %+v", loaded)
	}
}

func TestWriteExamplesParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.parquet")
	if err := WriteExamples(path, sampleExamples()); err != nil {
		t.Fatalf("WriteExamples failed: %v", err)
	}

	loaded, err := LoadExamples(path, 1)
	if err != nil {
		t.Fatalf("LoadExamples failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 example, got %d", len(loaded))
	}
	if len(loaded[0].Spans) != 2 || loaded[0].Spans[0].End != 20 {
		t.Errorf("Unexpected spans %v", loaded[0].Spans)
	}
}

func TestWriteRecordsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.parquet")
	records := []corpus.Record{
		{
			RecordURL:     "https://repo/handle/1",
			Authors:       []string{"Doe, John"},
			Breadcrumb:    []string{"A", "Tesis", "View"},
			Files:         []corpus.FileRef{{URL: "https://repo/f.pdf", Path: "full/abc.pdf"}},
			CoverPageText: strPtr("JOHN DOE"),
		},
		{RecordURL: "https://repo/handle/2"},
	}
	if err := WriteRecords(path, records); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}

	loaded, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}
	if !loaded[0].HasCoverPageText() || *loaded[0].CoverPageText != "JOHN DOE" {
		t.Errorf("Expected cover page text to survive")
	}
	if loaded[1].HasCoverPageText() {
		t.Errorf("Expected absent cover page text to stay absent")
	}
	if len(loaded[0].Files) != 1 || loaded[0].Files[0].Path != "full/abc.pdf" {
		t.Errorf("Unexpected files %+v", loaded[0].Files)
	}
}

func TestEntityUnmarshalInvalid(t *testing.T) {
	var e entity
	for _, input := range []string{`[1,2]`, `{"start":1}`, `["a",2,"X"]`} {
		if err := e.UnmarshalJSON([]byte(input)); err == nil {
			t.Errorf("Expected error for %s", input)
		}
	}
}

func TestJSONLWriterConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	w, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Write(corpus.Record{RecordURL: "r"}); err != nil {
				t.Errorf("Write failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 20 {
		t.Errorf("Expected 20 records, got %d", len(records))
	}
}
