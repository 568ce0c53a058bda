package query

import (
	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

// Parse turns an expression string into its tree. Malformed input (unmatched
// parentheses, dangling operators, empty atoms) fails with a
// *errors.ParseError carrying the offending byte offset. The parser performs
// no index lookups.
func Parse(input string) (Expr, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, pkgerrors.NewParseError(tok.pos, "end of input", tok.kind.String())
	}
	return expr, nil
}

type parser struct {
	tokens []token
	next   int
}

func (p *parser) peek() token {
	return p.tokens[p.next]
}

func (p *parser) advance() token {
	tok := p.tokens[p.next]
	if tok.kind != tokEOF {
		p.next++
	}
	return tok
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokOr {
		return left, nil
	}
	p.advance()
	right, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return Or{Left: left, Right: right}, nil
}

// parseAnd handles both explicit AND and juxtaposition: any token that can
// begin an atom continues the conjunction. Chains nest to the right.
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	switch p.peek().kind {
	case tokAnd:
		p.advance()
	case tokTerm, tokNot, tokLParen:
		// implicit AND
	default:
		return left, nil
	}
	right, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	return And{Left: left, Right: right}, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.peek().kind != tokNot {
		return p.parseAtom()
	}
	p.advance()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return Not{Operand: operand}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	switch tok := p.peek(); tok.kind {
	case tokTerm:
		p.advance()
		return Term{Value: tok.value, Field: tok.field}, nil
	case tokLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing := p.peek()
		if closing.kind != tokRParen {
			return nil, pkgerrors.NewParseError(closing.pos, "')'", closing.kind.String())
		}
		p.advance()
		return expr, nil
	default:
		return nil, pkgerrors.NewParseError(tok.pos, "term or '('", tok.kind.String())
	}
}
