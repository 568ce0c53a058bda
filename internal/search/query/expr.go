// Package query implements the boolean query engine: a lexer and
// recursive-descent parser producing an immutable expression tree, and an
// evaluator that resolves the tree against the inverted index.
//
// Grammar (case-insensitive keywords; adjacent terms imply AND):
//
//	expr     := or_expr
//	or_expr  := and_expr ( "OR" and_expr )*
//	and_expr := not_expr ( ["AND"] not_expr )*
//	not_expr := [ "NOT" ] atom
//	atom     := term | "(" expr ")"
//
// Precedence, highest to lowest: NOT, AND, OR.
package query

import "fmt"

// Expr is a node of a parsed boolean expression. The variant set is closed:
// evaluation switches exhaustively over these four types.
type Expr interface {
	isExpr()
	String() string
}

// Term is a leaf: a bare word or quoted phrase, optionally field-qualified.
type Term struct {
	Value string
	Field string
}

// And requires both operands.
type And struct {
	Left, Right Expr
}

// Or requires either operand.
type Or struct {
	Left, Right Expr
}

// Not is the complement of its operand relative to all indexed documents.
type Not struct {
	Operand Expr
}

func (Term) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}
func (Not) isExpr()  {}

func (t Term) String() string {
	if t.Field != "" {
		return t.Field + ":" + t.Value
	}
	return t.Value
}

func (a And) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }
func (o Or) String() string  { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }
func (n Not) String() string { return fmt.Sprintf("(NOT %s)", n.Operand) }
