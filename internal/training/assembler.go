// Package training assembles NER training examples from normalized corpus
// records.
package training

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/thesis-ner/internal/align"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/names"
)

// Label fields that can be aligned against cover page text.
const (
	FieldAuthors  = "authors"
	FieldAdvisors = "advisors"
	FieldTitle    = "title"
	FieldSubjects = "subjects"
	FieldAbstract = "abstract"
)

// DefaultLabelFields are aligned when no configuration says otherwise.
var DefaultLabelFields = []string{FieldAuthors, FieldAdvisors}

// KnownFields lists every field name accepted by NewAssembler.
var KnownFields = []string{FieldAuthors, FieldAdvisors, FieldTitle, FieldSubjects, FieldAbstract}

// Example is a cover page text with the entity spans found in it.
type Example struct {
	ID    string       `json:"id" parquet:"id"`
	Text  string       `json:"text" parquet:"text"`
	Spans []align.Span `json:"spans" parquet:"spans,list"`
}

// Assembler turns normalized records into training examples.
type Assembler struct {
	aligner *align.Aligner
	fields  []string
}

// NewAssembler validates labelFields and binds them to aligner. Fields are
// scanned in the order given, which decides overlaps between labels.
func NewAssembler(aligner *align.Aligner, labelFields []string) (*Assembler, error) {
	if aligner == nil {
		return nil, fmt.Errorf("aligner is required")
	}
	if len(labelFields) == 0 {
		return nil, fmt.Errorf("at least one label field is required")
	}
	seen := make(map[string]bool, len(labelFields))
	fields := make([]string, 0, len(labelFields))
	for _, f := range labelFields {
		f = strings.ToLower(strings.TrimSpace(f))
		if !isKnownField(f) {
			return nil, fmt.Errorf("unknown label field %q (supported: %s)", f, strings.Join(KnownFields, ", "))
		}
		if seen[f] {
			return nil, fmt.Errorf("duplicate label field %q", f)
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return &Assembler{aligner: aligner, fields: fields}, nil
}

// Fields returns the label fields in scan order.
func (a *Assembler) Fields() []string {
	return append([]string(nil), a.fields...)
}

// Assemble aligns the record's metadata against its cover page text. The
// second return value is false when nothing could be aligned; such records
// carry no positive signal and are not turned into examples.
func (a *Assembler) Assemble(rec corpus.NormalizedRecord) (Example, bool) {
	fields := make([]align.Field, 0, len(a.fields))
	for _, f := range a.fields {
		fields = append(fields, align.Field{
			Label:  strings.ToUpper(f),
			Values: fieldValues(rec, f),
		})
	}

	spans := a.aligner.Align(rec.CoverPageText, fields)
	if len(spans) == 0 {
		return Example{}, false
	}
	return Example{
		ID:    rec.ID,
		Text:  rec.CoverPageText,
		Spans: spans,
	}, true
}

func fieldValues(rec corpus.NormalizedRecord, field string) []string {
	switch field {
	case FieldAuthors:
		return names.Permute(rec.Authors)
	case FieldAdvisors:
		return names.Permute(rec.Advisors)
	case FieldTitle:
		return []string{rec.Title}
	case FieldSubjects:
		return rec.Subjects
	case FieldAbstract:
		return []string{rec.Abstract}
	default:
		return nil
	}
}

func isKnownField(field string) bool {
	for _, f := range KnownFields {
		if f == field {
			return true
		}
	}
	return false
}
