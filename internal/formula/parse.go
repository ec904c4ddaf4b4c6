package formula

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Sentinel error kinds returned by the parser and by Apply.
var (
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownFunction = errors.New("unknown formula function")
	ErrUnknownColumn   = errors.New("formula references missing column")
)

// Parse compiles src against the default function registry.
func Parse(src string) (Expr, error) {
	return ParseWith(src, DefaultRegistry)
}

// MustParse is like Parse but panics on error. Intended for package-level
// formula tables.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseWith compiles src, resolving function calls against reg.
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | primary
//	primary = number | ident | ident "(" [ expr { "," expr } ] ")" | "(" expr ")"
//
// Identifiers containing spaces or symbols may be quoted with backticks.
func ParseWith(src string, reg Registry) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, reg: reg}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errorf(ErrSyntax, "unexpected %q at offset %d", p.peek().text, p.peek().pos)
	}
	return e, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func lex(src string) ([]token, error) {
	var out []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			out = append(out, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			out = append(out, token{kind: tokComma, text: ",", pos: i})
			i++
		case strings.ContainsRune("+-*/", r):
			out = append(out, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '`':
			j := i + 1
			for j < len(rs) && rs[j] != '`' {
				j++
			}
			if j >= len(rs) {
				return nil, errorf(ErrSyntax, "unterminated quoted identifier at offset %d", i)
			}
			out = append(out, token{kind: tokIdent, text: string(rs[i+1 : j]), pos: i})
			i = j + 1
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == 'e' || rs[j] == 'E' ||
				((rs[j] == '-' || rs[j] == '+') && j > i && (rs[j-1] == 'e' || rs[j-1] == 'E'))) {
				j++
			}
			text := string(rs[i:j])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errorf(ErrSyntax, "bad number %q at offset %d", text, i)
			}
			out = append(out, token{kind: tokNum, text: text, num: v, pos: i})
			i = j
		case isIdentRune(r, true):
			j := i
			for j < len(rs) && isIdentRune(rs[j], false) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: string(rs[i:j]), pos: i})
			i = j
		default:
			return nil, errorf(ErrSyntax, "unexpected character %q at offset %d", r, i)
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(rs)})
	return out, nil
}

type parser struct {
	toks []token
	i    int
	reg  Registry
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expr() (Expr, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text[0]
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) term() (Expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text[0]
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) unary() (Expr, error) {
	if t := p.peek(); t.kind == tokOp && t.text == "-" {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Neg{X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return Number{V: t.num}, nil
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, errorf(ErrSyntax, "missing ')' for '(' at offset %d", t.pos)
		}
		return e, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return Column{Name: t.text}, nil
		}
		return p.call(t)
	case tokEOF:
		return nil, errorf(ErrSyntax, "unexpected end of formula")
	}
	return nil, errorf(ErrSyntax, "unexpected %q at offset %d", t.text, t.pos)
}

func (p *parser) call(name token) (Expr, error) {
	fn, ok := p.reg[name.text]
	if !ok {
		return nil, errorf(ErrUnknownFunction, "%s", name.text)
	}
	p.next() // (
	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.next().kind != tokRParen {
		return nil, errorf(ErrSyntax, "missing ')' after arguments of %s", name.text)
	}
	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return nil, errorf(ErrSyntax, "%s: wrong number of arguments (%d)", name.text, len(args))
	}
	return Call{Fn: name.text, Args: args, fn: fn}, nil
}
