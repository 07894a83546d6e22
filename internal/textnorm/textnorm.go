// Package textnorm canonicalizes metadata values and OCR page text so that the
// two can be compared literally.
//
// All functions are pure and total. Output is always ASCII: accented letters
// lose their marks, typographic punctuation is mapped to its plain form and any
// rune without an ASCII rendering is dropped.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation maps runes that NFKD decomposition leaves untouched, or
// decomposes into something other than ASCII, to their closest ASCII spelling.
var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
	"“", "\"", "”", "\"", "„", "\"", "‟", "\"", "″", "\"",
	"«", "\"", "»", "\"",
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-",
	"…", "...",
	"\u00a0", " ", "\u2007", " ", "\u202f", " ", "\u2009", " ",
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"þ", "th", "Þ", "TH",
	"º", "o", "ª", "a",
	"¿", "?", "¡", "!",
)

// Transliterate rewrites s using only ASCII characters.
func Transliterate(s string) string {
	if isASCII(s) {
		return s
	}
	s = punctuation.Replace(s)
	// Compatibility decomposition also folds ligatures and full-width forms.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	if isASCII(out) {
		return out
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		switch {
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// NormalizeField cleans a single-line metadata value: it transliterates,
// removes line breaks, trims and collapses whitespace runs to one space.
func NormalizeField(value string) string {
	value = Transliterate(value)
	return strings.Join(strings.Fields(value), " ")
}

// NormalizeBlock is the multi-line variant of NormalizeField used for page
// text. Every line is trimmed and collapsed on its own; the line structure,
// empty lines included, is preserved.
func NormalizeBlock(text string) string {
	text = Transliterate(text)
	text = strings.ReplaceAll(text, "\r", "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

// UpperCase folds value to upper case.
func UpperCase(value string) string {
	return strings.ToUpper(value)
}

// NormalizeFields applies NormalizeField and UpperCase to every element.
func NormalizeFields(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, UpperCase(NormalizeField(v)))
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= unicode.MaxASCII {
			return false
		}
	}
	return true
}
