// Package errors defines the sentinel errors and typed error values shared
// across the library. Callers are expected to test with errors.Is/errors.As
// rather than string comparison.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidThreshold = errors.New("fuzzy threshold must be in [0,1]")
	ErrInvalidLevel     = errors.New("invalid log level")
	ErrEventNotFound    = errors.New("event not found")
	ErrParse            = errors.New("query parse error")
	ErrClosed           = errors.New("logger is closed")
)

// ParseError reports a malformed boolean query expression. Position is the
// byte offset of the offending token within the expression; Expected
// describes what the parser was looking for there.
type ParseError struct {
	Position int
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("parse error at %d: expected %s", e.Position, e.Expected)
	}
	return fmt.Sprintf("parse error at %d: expected %s, got %q", e.Position, e.Expected, e.Got)
}

// Is makes every ParseError match the ErrParse sentinel.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError builds a ParseError for the token at the given offset.
func NewParseError(position int, expected, got string) *ParseError {
	return &ParseError{Position: position, Expected: expected, Got: got}
}
