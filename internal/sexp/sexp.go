// Package sexp implements the S-expression wire form of the command
// protocol: a reader, a printer, and exact, invertible term
// serialization against a declaration registry.
package sexp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wbthomason/egglog-go/internal/decl"
)

// Node is a sealed interface over S-expression nodes. Only Symbol, Int,
// Float, Str, and List implement it.
type Node interface {
	node()

	// String renders the node in wire form.
	String() string
}

// Symbol is a bare identifier, including keywords (leading colon).
type Symbol string

func (Symbol) node() {}

func (s Symbol) String() string { return string(s) }

// Int is an integer token. Always signed 64-bit.
type Int int64

func (Int) node() {}

func (n Int) String() string { return strconv.FormatInt(int64(n), 10) }

// Float is a float token. Printed with the shortest representation that
// parses back to the same value.
type Float float64

func (Float) node() {}

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	// A float that prints like an integer must keep a marker, or it
	// would parse back as an Int.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Str is a quoted string token.
type Str string

func (Str) node() {}

func (s Str) String() string { return strconv.Quote(string(s)) }

// List is a parenthesized sequence.
type List []Node

func (List) node() {}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, n := range l {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Parse reads every top-level form in the input. A syntax error is an
// engine-protocol error: this reader only ever sees text this process or
// the engine produced.
func Parse(input string) ([]Node, error) {
	p := &parser{src: input}
	var nodes []Node
	for {
		p.skipSpace()
		if p.eof() {
			return nodes, nil
		}
		n, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

// ParseOne reads exactly one form, rejecting trailing content.
func ParseOne(input string) (Node, error) {
	nodes, err := Parse(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, decl.Errorf(decl.ErrCodeEngineProtocol,
			"expected one form, got %d", len(nodes))
	}
	return nodes[0], nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ';':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		case unicode.IsSpace(rune(c)):
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseNode() (Node, error) {
	p.skipSpace()
	if p.eof() {
		return nil, decl.Errorf(decl.ErrCodeEngineProtocol, "unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '(':
		return p.parseList()
	case c == ')':
		return nil, decl.Errorf(decl.ErrCodeEngineProtocol, "unexpected ) at offset %d", p.pos)
	case c == '"':
		return p.parseString()
	default:
		return p.parseAtom()
	}
}

func (p *parser) parseList() (Node, error) {
	p.pos++ // consume (
	var items List
	for {
		p.skipSpace()
		if p.eof() {
			return nil, decl.Errorf(decl.ErrCodeEngineProtocol, "unterminated list")
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return items, nil
		}
		n, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

func (p *parser) parseString() (Node, error) {
	start := p.pos
	p.pos++ // consume opening quote
	for !p.eof() {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return nil, decl.Errorf(decl.ErrCodeEngineProtocol,
					"bad string literal %s: %v", p.src[start:p.pos], err)
			}
			return Str(s), nil
		default:
			p.pos++
		}
	}
	return nil, decl.Errorf(decl.ErrCodeEngineProtocol, "unterminated string literal")
}

func (p *parser) parseAtom() (Node, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '(' || c == ')' || c == '"' || c == ';' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	tok := p.src[start:p.pos]
	if tok == "" {
		return nil, decl.Errorf(decl.ErrCodeEngineProtocol, "empty token at offset %d", start)
	}
	if looksNumeric(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Float(f), nil
		}
	}
	return Symbol(tok), nil
}

func looksNumeric(tok string) bool {
	c := tok[0]
	if c == '-' || c == '+' {
		return len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9'
	}
	return c >= '0' && c <= '9'
}

// Keyword renders a keyword symbol.
func Keyword(name string) Symbol { return Symbol(":" + name) }

// Join prints forms one per line, the shape of a command batch.
func Join(nodes []Node) string {
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n.String())
	}
	return b.String()
}

// errorf is a shorthand for protocol errors with positions rendered.
func errorf(format string, args ...any) error {
	return decl.Errorf(decl.ErrCodeEngineProtocol, "%s", fmt.Sprintf(format, args...))
}
