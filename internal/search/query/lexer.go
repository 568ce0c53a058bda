package query

import (
	"strings"

	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTerm
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokTerm:
		return "term"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "unknown token"
}

type token struct {
	kind  tokenKind
	value string
	field string
	pos   int
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isDelim(b byte) bool {
	return isSpace(b) || b == '(' || b == ')' || b == '"'
}

// lex scans the expression into tokens, recording the byte offset of each.
func lex(input string) ([]token, error) {
	tokens := make([]token, 0, 8)
	i := 0
	for i < len(input) {
		switch b := input[i]; {
		case isSpace(b):
			i++
		case b == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case b == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		case b == '"':
			value, next, err := lexQuoted(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokTerm, value: value, pos: i})
			i = next
		default:
			tok, next, err := lexWord(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(input)})
	return tokens, nil
}

// lexQuoted reads a quoted phrase starting at the opening quote.
func lexQuoted(input string, start int) (value string, next int, err error) {
	end := strings.IndexByte(input[start+1:], '"')
	if end < 0 {
		return "", 0, pkgerrors.NewParseError(start, "closing '\"'", "")
	}
	end += start + 1
	return input[start+1 : end], end + 1, nil
}

// lexWord reads a bare word, resolving operator keywords and "field:term"
// qualification. A qualifier may be followed by a quoted phrase, as in
// description:"login failed".
func lexWord(input string, start int) (token, int, error) {
	i := start
	for i < len(input) && !isDelim(input[i]) {
		i++
	}
	word := input[start:i]

	switch strings.ToUpper(word) {
	case "AND":
		return token{kind: tokAnd, pos: start}, i, nil
	case "OR":
		return token{kind: tokOr, pos: start}, i, nil
	case "NOT":
		return token{kind: tokNot, pos: start}, i, nil
	}

	colon := strings.IndexByte(word, ':')
	if colon <= 0 {
		return token{kind: tokTerm, value: word, pos: start}, i, nil
	}
	field := strings.ToLower(word[:colon])
	value := word[colon+1:]
	if value == "" {
		if i < len(input) && input[i] == '"' {
			quoted, next, err := lexQuoted(input, i)
			if err != nil {
				return token{}, 0, err
			}
			return token{kind: tokTerm, value: quoted, field: field, pos: start}, next, nil
		}
		return token{}, 0, pkgerrors.NewParseError(start, "term after field qualifier", word)
	}
	return token{kind: tokTerm, value: value, field: field, pos: start}, i, nil
}
