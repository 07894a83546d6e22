package align

import (
	"unicode"
	"unicode/utf8"
)

// Token is a token's byte range in the text it came from.
type Token struct {
	Start int
	End   int
}

// Tokenizer splits text into tokens. A span can only be labeled if it starts
// at a token start and ends at a token end.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// WordTokenizer treats every run of letters and digits as one token and every
// other non-space rune as a token of its own. Whitespace only separates.
// It has no state and is safe for concurrent use.
type WordTokenizer struct{}

// NewWordTokenizer returns the default tokenizer.
func NewWordTokenizer() WordTokenizer {
	return WordTokenizer{}
}

// Tokenize implements Tokenizer.
func (WordTokenizer) Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				tokens = append(tokens, Token{Start: start, End: i})
				start = -1
			}
			if !unicode.IsSpace(r) {
				tokens = append(tokens, Token{Start: i, End: i + size})
			}
		}
		i += size
	}
	if start >= 0 {
		tokens = append(tokens, Token{Start: start, End: len(text)})
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
