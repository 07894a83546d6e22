// Package pattern compiles literal metadata values into matchers that tolerate
// OCR line wrapping between words.
package pattern

import (
	"regexp"
	"strings"
)

// connector matches the gap between two words of a value. OCR output often
// breaks a multi-word name or title across lines, so any run of whitespace or
// line breaks is accepted. The value's own leading and trailing whitespace is
// never part of a match.
const connector = `\s+?`

// Pattern matches one literal value inside page text.
type Pattern struct {
	value string
	re    *regexp.Regexp
}

// Build compiles value into a Pattern. The value is split on single spaces and
// every word is matched literally. Blank values yield nil, which matches
// nothing.
func Build(value string) *Pattern {
	words := make([]string, 0, strings.Count(value, " ")+1)
	for _, word := range strings.Split(value, " ") {
		if word == "" {
			continue
		}
		words = append(words, regexp.QuoteMeta(word))
	}
	if len(words) == 0 {
		return nil
	}
	return &Pattern{
		value: value,
		re:    regexp.MustCompile(strings.Join(words, connector)),
	}
}

// Value returns the literal the pattern was built from.
func (p *Pattern) Value() string {
	if p == nil {
		return ""
	}
	return p.value
}

// String returns the regular expression source.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.re.String()
}

// FindAll returns the byte offsets of every non-overlapping match in text.
func (p *Pattern) FindAll(text string) [][2]int {
	if p == nil {
		return nil
	}
	locs := p.re.FindAllStringIndex(text, -1)
	matches := make([][2]int, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, [2]int{loc[0], loc[1]})
	}
	return matches
}
