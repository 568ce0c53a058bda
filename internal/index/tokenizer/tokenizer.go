// Package tokenizer provides text tokenisation for the search core. It
// lower-cases input and splits on non-alphanumeric boundaries. It is pure
// and deterministic: no stemming, no stop-word removal, no shared state.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a single normalised term and its zero-based token position
// within the field it was extracted from.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks the text of one field into ordered Tokens. Positions are
// assigned after empty tokens are discarded, so they are dense.
func Tokenize(text string) []Token {
	words := Terms(text)
	tokens := make([]Token, len(words))
	for i, word := range words {
		tokens[i] = Token{Term: word, Position: i}
	}
	return tokens
}

// Terms returns just the normalised terms of the text, in order. Used where
// positions are irrelevant (query-side normalisation).
func Terms(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
