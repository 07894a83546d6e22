package corpus

import (
	"github.com/lehigh-university-libraries/thesis-ner/internal/textnorm"
)

// DefaultMinYear is the oldest issue year kept for training. Older scans have
// poor OCR quality.
const DefaultMinYear = 2010

// DefaultDocumentTypes are the collection names holding thesis-style
// documents in the source repository, spelling variants included.
var DefaultDocumentTypes = []string{
	"Proyectos de Grado",
	"Tesis de Grado",
	"Tesis",
	"Trabajo Dirigido",
	"Proyecto de Grado",
	"Tesis de Especialidad",
	"Tesis de Maestría",
	"Trabajos Dirigidos",
	"PETAENG",
	"Trabajos dirigidos",
}

// Decision is the outcome of the corpus filter for one record.
type Decision int

const (
	Eligible Decision = iota
	TooOld
	UnsupportedDocumentType
)

// String returns a short name for the decision.
func (d Decision) String() string {
	switch d {
	case Eligible:
		return "eligible"
	case TooOld:
		return "too_old"
	case UnsupportedDocumentType:
		return "unsupported_document_type"
	default:
		return "unknown"
	}
}

// Filter keeps recent records from thesis-like collections.
type Filter struct {
	minYear       int
	documentTypes map[string]struct{}
}

// NewFilter creates a filter. Document types are compared after
// normalization and case folding, so "Tesis de Maestría" also admits
// "TESIS DE MAESTRIA".
func NewFilter(minYear int, documentTypes []string) *Filter {
	allowed := make(map[string]struct{}, len(documentTypes))
	for _, t := range documentTypes {
		allowed[documentTypeKey(t)] = struct{}{}
	}
	return &Filter{
		minYear:       minYear,
		documentTypes: allowed,
	}
}

// Check applies the temporal rule first, then the category rule.
func (f *Filter) Check(rec NormalizedRecord) Decision {
	if rec.Year < f.minYear {
		return TooOld
	}
	if rec.DocumentType == "" {
		return UnsupportedDocumentType
	}
	if _, ok := f.documentTypes[documentTypeKey(rec.DocumentType)]; !ok {
		return UnsupportedDocumentType
	}
	return Eligible
}

// IsEligible reports whether rec passes both rules.
func (f *Filter) IsEligible(rec NormalizedRecord) bool {
	return f.Check(rec) == Eligible
}

func documentTypeKey(value string) string {
	return textnorm.UpperCase(textnorm.NormalizeField(value))
}
