package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeNormalizes(t *testing.T) {
	tokens := Tokenize("Auth LOGIN, failed!! (timeout)")
	require.Len(t, tokens, 4)
	assert.Equal(t, Token{Term: "auth", Position: 0}, tokens[0])
	assert.Equal(t, Token{Term: "login", Position: 1}, tokens[1])
	assert.Equal(t, Token{Term: "failed", Position: 2}, tokens[2])
	assert.Equal(t, Token{Term: "timeout", Position: 3}, tokens[3])
}

func TestTokenizeKeepsDigitsAndUnicode(t *testing.T) {
	terms := Terms("HTTP 503 réessayer")
	assert.Equal(t, []string{"http", "503", "réessayer"}, terms)
}

func TestTokenizeEmptyAndPunctuationOnly(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("--- ... !!!"))
}

func TestTokenizePositionsAreDense(t *testing.T) {
	tokens := Tokenize("a  ,,  b")
	require.Len(t, tokens, 2)
	assert.Equal(t, 0, tokens[0].Position)
	assert.Equal(t, 1, tokens[1].Position)
}

func TestTokenizeDeterministic(t *testing.T) {
	const text = "payment gateway timeout payment"
	first := Tokenize(text)
	second := Tokenize(text)
	assert.Equal(t, first, second)
}
