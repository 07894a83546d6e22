package mets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
)

const sampleMETS = `<?xml version="1.0" encoding="UTF-8"?>
<mets:METS xmlns:mets="http://www.loc.gov/METS/" xmlns:dim="http://www.dspace.org/xmlns/dspace/dim" xmlns:xlink="http://www.w3.org/TR/xlink/">
  <mets:dmdSec ID="DMD_1">
    <mets:mdWrap MDTYPE="OTHER" OTHERMDTYPE="DIM">
      <mets:xmlData>
        <dim:dim dspaceType="ITEM">
          <dim:field mdschema="dc" element="contributor" qualifier="advisor">Smith, Alice</dim:field>
          <dim:field mdschema="dc" element="contributor" qualifier="author">Doe, John</dim:field>
          <dim:field mdschema="dc" element="contributor" qualifier="author">Pérez, José</dim:field>
          <dim:field mdschema="dc" element="date" qualifier="accessioned">2016-01-05T14:00:00Z</dim:field>
          <dim:field mdschema="dc" element="date" qualifier="issued">2015</dim:field>
          <dim:field mdschema="dc" element="description" qualifier="abstract">El presente trabajo &amp; sus resultados.</dim:field>
          <dim:field mdschema="dc" element="description">Segunda descripción</dim:field>
          <dim:field mdschema="dc" element="subject">Riego</dim:field>
          <dim:field mdschema="dc" element="subject">Control</dim:field>
          <dim:field mdschema="dc" element="title">Sistema de control de riego</dim:field>
          <dim:field mdschema="dc" element="title" qualifier="alternative">Otro título</dim:field>
        </dim:dim>
      </mets:xmlData>
    </mets:mdWrap>
  </mets:dmdSec>
  <mets:fileSec>
    <mets:fileGrp USE="ORIGINAL">
      <mets:file ID="file_1" MIMETYPE="application/pdf">
        <mets:FLocat LOCTYPE="URL" xlink:href="/xmlui/bitstream/handle/123456789/1/T-100.pdf?sequence=1" />
      </mets:file>
    </mets:fileGrp>
    <mets:fileGrp USE="LICENSE">
      <mets:file ID="file_2">
        <mets:FLocat LOCTYPE="URL" xlink:href="/xmlui/bitstream/handle/123456789/1/license.txt" />
      </mets:file>
    </mets:fileGrp>
  </mets:fileSec>
</mets:METS>`

func TestParse(t *testing.T) {
	meta, err := Parse(strings.NewReader(sampleMETS))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if meta.Title != "Sistema de control de riego" {
		t.Errorf("Unexpected title %q", meta.Title)
	}
	if meta.Abstract != "El presente trabajo & sus resultados." {
		t.Errorf("Unexpected abstract %q", meta.Abstract)
	}
	if meta.Issued != "2015" {
		t.Errorf("Expected issued 2015, got %q", meta.Issued)
	}
	if !reflect.DeepEqual(meta.Authors, []string{"Doe, John", "Pérez, José"}) {
		t.Errorf("Unexpected authors %v", meta.Authors)
	}
	if !reflect.DeepEqual(meta.Advisors, []string{"Smith, Alice"}) {
		t.Errorf("Unexpected advisors %v", meta.Advisors)
	}
	if !reflect.DeepEqual(meta.Subjects, []string{"Riego", "Control"}) {
		t.Errorf("Unexpected subjects %v", meta.Subjects)
	}
	if got := meta.FirstFileURL(); got != "/xmlui/bitstream/handle/123456789/1/T-100.pdf?sequence=1" {
		t.Errorf("Unexpected file URL %q", got)
	}
	if len(meta.FileURLs) != 1 {
		t.Errorf("Expected only the first file group, got %v", meta.FileURLs)
	}
}

func TestParseTruncated(t *testing.T) {
	cut := strings.Index(sampleMETS, `<dim:field mdschema="dc" element="description"`)
	meta, err := Parse(strings.NewReader(sampleMETS[:cut+20]))
	if err == nil {
		t.Fatal("Expected error for truncated document")
	}
	if meta.Issued != "2015" || len(meta.Authors) != 2 {
		t.Errorf("Expected fields before the error to be kept, got %+v", meta)
	}
	if meta.Title != "" || meta.FirstFileURL() != "" {
		t.Errorf("Expected fields after the error to be empty, got %+v", meta)
	}
}

func TestParseEmpty(t *testing.T) {
	meta, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if meta.Title != "" || meta.Authors != nil {
		t.Errorf("Expected empty metadata, got %+v", meta)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "mets.xml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestParseFileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mets.xml")
	if err := os.WriteFile(path, []byte(sampleMETS), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	meta, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	rec := corpus.Record{RecordURL: "r1"}
	meta.Apply(&rec)
	if rec.Title != meta.Title || len(rec.Authors) != 2 || rec.Issued != "2015" || rec.RecordURL != "r1" {
		t.Errorf("Unexpected record after apply %+v", rec)
	}
}
