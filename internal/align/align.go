// Package align locates metadata values inside page text and turns the
// matches into non-overlapping labeled spans.
//
// An Aligner is built once per process around a Tokenizer and then shared.
// It holds no mutable state, so Align may be called from many goroutines.
package align

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/thesis-ner/internal/pattern"
)

// Span is a labeled region of a text. Start and End are character (rune)
// offsets, End exclusive.
type Span struct {
	Start int    `json:"start" parquet:"start"`
	End   int    `json:"end" parquet:"end"`
	Label string `json:"label" parquet:"label"`
}

// String returns a debug representation such as AUTHORS[10:18].
func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Label, s.Start, s.End)
}

// Overlaps reports whether s and other share at least one offset.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Field is a label with the values to search for. Fields are scanned in the
// order given, and values in their order within a field.
type Field struct {
	Label  string
	Values []string
}

// Aligner matches field values against text.
type Aligner struct {
	tokenizer Tokenizer
}

// NewAligner creates an aligner around tokenizer. A nil tokenizer falls back
// to WordTokenizer.
func NewAligner(tokenizer Tokenizer) *Aligner {
	if tokenizer == nil {
		tokenizer = WordTokenizer{}
	}
	return &Aligner{tokenizer: tokenizer}
}

// Align finds every occurrence of every value in text and returns the
// resulting spans sorted by start offset.
//
// Matches that do not start and end on token boundaries are dropped. When
// candidates overlap, the one found first wins: earlier fields beat later
// fields, and within a field earlier values and earlier positions win.
func (a *Aligner) Align(text string, fields []Field) []Span {
	if text == "" {
		return nil
	}
	boundaries := a.boundaries(text)

	var accepted []Span
	for _, field := range fields {
		for _, value := range field.Values {
			p := pattern.Build(value)
			if p == nil {
				continue
			}
			for _, m := range p.FindAll(text) {
				if !boundaries.aligned(m[0], m[1]) {
					continue
				}
				candidate := Span{Start: m[0], End: m[1], Label: field.Label}
				if overlapsAny(candidate, accepted) {
					continue
				}
				accepted = append(accepted, candidate)
			}
		}
	}
	if len(accepted) == 0 {
		return nil
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return toRuneOffsets(text, accepted)
}

func overlapsAny(candidate Span, accepted []Span) bool {
	for _, s := range accepted {
		if candidate.Overlaps(s) {
			return true
		}
	}
	return false
}

type tokenBoundaries struct {
	starts map[int]struct{}
	ends   map[int]struct{}
}

func (a *Aligner) boundaries(text string) tokenBoundaries {
	tokens := a.tokenizer.Tokenize(text)
	b := tokenBoundaries{
		starts: make(map[int]struct{}, len(tokens)),
		ends:   make(map[int]struct{}, len(tokens)),
	}
	for _, t := range tokens {
		b.starts[t.Start] = struct{}{}
		b.ends[t.End] = struct{}{}
	}
	return b
}

func (b tokenBoundaries) aligned(start, end int) bool {
	if start >= end {
		return false
	}
	_, okStart := b.starts[start]
	_, okEnd := b.ends[end]
	return okStart && okEnd
}

// toRuneOffsets converts byte offsets of sorted spans into rune offsets.
func toRuneOffsets(text string, spans []Span) []Span {
	out := make([]Span, len(spans))
	bytePos, runePos := 0, 0
	advance := func(target int) int {
		runePos += utf8.RuneCountInString(text[bytePos:target])
		bytePos = target
		return runePos
	}
	for i, s := range spans {
		start := advance(s.Start)
		end := advance(s.End)
		out[i] = Span{Start: start, End: end, Label: s.Label}
	}
	return out
}
