// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package armexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is returned when an expression string is not syntactically valid.
type ParseError struct {
	Expression string
	Pos        int
	Message    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing expression %q at position %d: %s", e.Expression, e.Pos, e.Message)
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenLParen
	tokenRParen
	tokenComma
	tokenDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) errorf(pos int, format string, args ...any) error {
	return &ParseError{Expression: s.src, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (s *scanner) next() (token, error) {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t' || s.src[s.pos] == '\r' || s.src[s.pos] == '\n') {
		s.pos++
	}

	if s.pos >= len(s.src) {
		return token{kind: tokenEOF, pos: s.pos}, nil
	}

	start := s.pos
	switch c := s.src[s.pos]; {
	case c == '(':
		s.pos++
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case c == ')':
		s.pos++
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case c == ',':
		s.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case c == '.':
		s.pos++
		return token{kind: tokenDot, text: ".", pos: start}, nil
	case c == '\'':
		return s.scanString()
	case c == '-' || (c >= '0' && c <= '9'):
		return s.scanNumber()
	case isIdentStart(c):
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokenIdent, text: s.src[start:s.pos], pos: start}, nil
	default:
		return token{}, s.errorf(start, "unexpected character %q", c)
	}
}

// scanString scans a single-quoted string literal. A doubled quote ('') inside the literal is an
// escaped single quote.
func (s *scanner) scanString() (token, error) {
	start := s.pos
	s.pos++ // opening quote

	var sb strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\'' {
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '\'' {
				sb.WriteByte('\'')
				s.pos += 2
				continue
			}
			s.pos++
			return token{kind: tokenString, text: sb.String(), pos: start}, nil
		}
		sb.WriteByte(c)
		s.pos++
	}

	return token{}, s.errorf(start, "unterminated string literal")
}

func (s *scanner) scanNumber() (token, error) {
	start := s.pos
	if s.src[s.pos] == '-' {
		s.pos++
	}

	digits := 0
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
		digits++
	}

	if digits == 0 {
		return token{}, s.errorf(start, "expected a digit after '-'")
	}

	return token{kind: tokenNumber, text: s.src[start:s.pos], pos: start}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type parser struct {
	s    *scanner
	tok  token
	peek *token
}

func (p *parser) advance() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}

	tok, err := p.s.next()
	if err != nil {
		return err
	}

	p.tok = tok
	return nil
}

func (p *parser) peekToken() (token, error) {
	if p.peek == nil {
		tok, err := p.s.next()
		if err != nil {
			return token{}, err
		}
		p.peek = &tok
	}

	return *p.peek, nil
}

// Parse parses the body of a bracketed template expression (the text between `[` and `]`).
func Parse(src string) (Node, error) {
	p := &parser{s: &scanner{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}

	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokenEOF {
		return nil, p.s.errorf(p.tok.pos, "unexpected %q after expression", p.tok.text)
	}

	return node, nil
}

func (p *parser) parseExpr() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	// Property access is only meaningful on function results (e.g. resourceGroup().location), but the
	// grammar permits it after any primary; evaluation rejects access on non-objects.
	for p.tok.kind == tokenDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokenIdent {
			return nil, p.s.errorf(p.tok.pos, "expected a property name after '.'")
		}
		node = &PropertyAccess{Target: node, Property: p.tok.text}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return node, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokenString:
		node := &StringLiteral{Value: p.tok.text}
		return node, p.advance()
	case tokenNumber:
		value, err := strconv.Atoi(p.tok.text)
		if err != nil {
			return nil, p.s.errorf(p.tok.pos, "invalid number %q", p.tok.text)
		}
		node := &NumberLiteral{Value: value}
		return node, p.advance()
	case tokenIdent:
		name := p.tok.text
		namePos := p.tok.pos
		next, err := p.peekToken()
		if err != nil {
			return nil, err
		}
		if next.kind != tokenLParen {
			return nil, p.s.errorf(namePos, "identifier %q must be a function call", name)
		}
		if err := p.advance(); err != nil { // onto '('
			return nil, err
		}
		if err := p.advance(); err != nil { // past '('
			return nil, err
		}

		call := &FunctionCall{Name: name}
		if p.tok.kind != tokenRParen {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if p.tok.kind != tokenComma {
					break
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if p.tok.kind != tokenRParen {
			return nil, p.s.errorf(p.tok.pos, "expected ')' to close call to %q", name)
		}
		return call, p.advance()
	case tokenEOF:
		return nil, p.s.errorf(p.tok.pos, "empty expression")
	default:
		return nil, p.s.errorf(p.tok.pos, "unexpected %q", p.tok.text)
	}
}
