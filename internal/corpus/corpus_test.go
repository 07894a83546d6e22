package corpus

import (
	"path/filepath"
	"reflect"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

var thesisTrail = []string{"DSpace Home", "Facultad de Tecnología", "Carrera Electrónica y Telecomunicaciones", "Proyectos de Grado", "View Item"}

func TestParseYear(t *testing.T) {
	tests := []struct {
		issued   string
		expected int
	}{
		{"2021-01-01", 2021},
		{"15-03-2010", 2010},
		{"Marzo de 2009", 2009},
		{"", 0},
		{"s.f.", 0},
		{"21-1-1", 0},
		{"123456", 1234},
		{"0123", 0},
		{"0999-12-31", 0},
		{"1000", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.issued, func(t *testing.T) {
			result := ParseYear(tt.issued)
			if result != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestDocumentType(t *testing.T) {
	if got := DocumentType(thesisTrail); got != "Proyectos de Grado" {
		t.Errorf("Expected Proyectos de Grado, got %q", got)
	}
	if got := DocumentType([]string{"View Item"}); got != "" {
		t.Errorf("Expected empty document type for short breadcrumb, got %q", got)
	}
	if got := DocumentType(nil); got != "" {
		t.Errorf("Expected empty document type for nil breadcrumb, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	rec := Record{
		RecordURL:     "https://repositorio.umsa.bo/xmlui/handle/123456789/1",
		Title:         "  Sistema de  riego ",
		Abstract:      "Resumen\n del proyecto",
		Subjects:      []string{"Riego", "Agronomía"},
		Authors:       []string{"Doe, John"},
		Advisors:      []string{"Pérez,  María"},
		Issued:        "2021-01-01",
		Breadcrumb:    thesisTrail,
		CoverPageText: strPtr("Cover page text 1\n\n”Second  line”"),
	}

	norm, ok := Normalize(rec)
	if !ok {
		t.Fatal("Expected record with cover page text to normalize")
	}

	if norm.ID != rec.RecordURL {
		t.Errorf("Expected ID %q, got %q", rec.RecordURL, norm.ID)
	}
	if norm.Title != "SISTEMA DE RIEGO" {
		t.Errorf("Unexpected title %q", norm.Title)
	}
	if norm.Abstract != "RESUMEN DEL PROYECTO" {
		t.Errorf("Unexpected abstract %q", norm.Abstract)
	}
	if !reflect.DeepEqual(norm.Subjects, []string{"RIEGO", "AGRONOMIA"}) {
		t.Errorf("Unexpected subjects %q", norm.Subjects)
	}
	if !reflect.DeepEqual(norm.Authors, []string{"DOE, JOHN"}) {
		t.Errorf("Unexpected authors %q", norm.Authors)
	}
	if !reflect.DeepEqual(norm.Advisors, []string{"PEREZ, MARIA"}) {
		t.Errorf("Unexpected advisors %q", norm.Advisors)
	}
	if norm.CoverPageText != "COVER PAGE TEXT 1\n\n\"SECOND LINE\"" {
		t.Errorf("Unexpected cover page text %q", norm.CoverPageText)
	}
	if norm.Year != 2021 {
		t.Errorf("Expected year 2021, got %d", norm.Year)
	}
	if norm.DocumentType != "PROYECTOS DE GRADO" {
		t.Errorf("Expected document type PROYECTOS DE GRADO, got %q", norm.DocumentType)
	}
	expectedTrail := []string{"DSPACE HOME", "FACULTAD DE TECNOLOGIA", "CARRERA ELECTRONICA Y TELECOMUNICACIONES", "PROYECTOS DE GRADO", "VIEW ITEM"}
	if !reflect.DeepEqual(norm.Breadcrumb, expectedTrail) {
		t.Errorf("Expected normalized breadcrumb %q, got %q", expectedTrail, norm.Breadcrumb)
	}
	if !NewFilter(DefaultMinYear, DefaultDocumentTypes).IsEligible(norm) {
		t.Error("Expected normalized document type to pass the filter")
	}
}

func TestNormalizeMissingCoverPageText(t *testing.T) {
	if _, ok := Normalize(Record{Title: "No text", Issued: "2020"}); ok {
		t.Error("Expected record without cover page text to be rejected")
	}
}

func TestNormalizeEmptyCoverPageText(t *testing.T) {
	norm, ok := Normalize(Record{CoverPageText: strPtr("")})
	if !ok {
		t.Fatal("Expected empty but present cover page text to normalize")
	}
	if norm.CoverPageText != "" {
		t.Errorf("Expected empty text, got %q", norm.CoverPageText)
	}
}

func TestFilterCheck(t *testing.T) {
	filter := NewFilter(DefaultMinYear, DefaultDocumentTypes)

	tests := []struct {
		name     string
		record   NormalizedRecord
		expected Decision
	}{
		{
			name:     "recent thesis",
			record:   NormalizedRecord{Year: 2021, DocumentType: "Proyectos de Grado"},
			expected: Eligible,
		},
		{
			name:     "boundary year included",
			record:   NormalizedRecord{Year: 2010, DocumentType: "Tesis de Grado"},
			expected: Eligible,
		},
		{
			name:     "year before boundary excluded",
			record:   NormalizedRecord{Year: 2009, DocumentType: "Tesis de Grado"},
			expected: TooOld,
		},
		{
			name:     "missing year excluded regardless of type",
			record:   NormalizedRecord{Year: 0, DocumentType: "Tesis"},
			expected: TooOld,
		},
		{
			name:     "unknown collection",
			record:   NormalizedRecord{Year: 2015, DocumentType: "Revista"},
			expected: UnsupportedDocumentType,
		},
		{
			name:     "short breadcrumb",
			record:   NormalizedRecord{Year: 2015, DocumentType: ""},
			expected: UnsupportedDocumentType,
		},
		{
			name:     "accent and case variant",
			record:   NormalizedRecord{Year: 2015, DocumentType: "TESIS DE MAESTRIA"},
			expected: Eligible,
		},
		{
			name:     "whitespace variant",
			record:   NormalizedRecord{Year: 2015, DocumentType: "  Trabajos   dirigidos "},
			expected: Eligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.Check(tt.record)
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
			if filter.IsEligible(tt.record) != (tt.expected == Eligible) {
				t.Errorf("IsEligible disagrees with Check for %s", tt.name)
			}
		})
	}
}

func TestFilterConfigurable(t *testing.T) {
	filter := NewFilter(2020, []string{"Revista"})

	if !filter.IsEligible(NormalizedRecord{Year: 2020, DocumentType: "Revista"}) {
		t.Error("Expected configured document type and year to be eligible")
	}
	if filter.IsEligible(NormalizedRecord{Year: 2019, DocumentType: "Revista"}) {
		t.Error("Expected configured minimum year to apply")
	}
	if filter.IsEligible(NormalizedRecord{Year: 2021, DocumentType: "Tesis"}) {
		t.Error("Expected default document types to be replaced")
	}
}

func TestResolveFiles(t *testing.T) {
	rec := Record{
		Files: []FileRef{
			{URL: "https://repo/metadata/handle/1/2/mets.xml", Path: "full/aaa.xml"},
			{URL: "https://repo/bitstream/handle/1/2/T-1.pdf?sequence=1", Path: "full/bbb.pdf"},
			{URL: "https://repo/bitstream/handle/1/2/T-2.pdf", Path: "full/ccc.pdf"},
			{URL: "https://repo/other.pdf"},
		},
	}
	rec.ResolveFiles("/data/files")

	if rec.XMLFile != filepath.Join("/data/files", "full/aaa.xml") {
		t.Errorf("Unexpected XML file %q", rec.XMLFile)
	}
	if rec.PDFFile != filepath.Join("/data/files", "full/bbb.pdf") {
		t.Errorf("Expected the first PDF, got %q", rec.PDFFile)
	}

	empty := Record{}
	empty.ResolveFiles("/data/files")
	if empty.XMLFile != "" || empty.PDFFile != "" {
		t.Errorf("Expected no files, got %q and %q", empty.XMLFile, empty.PDFFile)
	}
}
