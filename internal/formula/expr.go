// Package formula evaluates declarative metric formulas over player rows.
//
// A formula is a small arithmetic expression over named columns, e.g.
//
//	pct(passes_completed, passes_attempted)
//	per90(coalesce(tackles_adj, tackles) + interceptions, Minutes)
//
// Formulas are parsed once into an expression tree and evaluated per row.
// Division never produces infinities: a non-positive denominator yields an
// unknown (NaN) value.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is the read side of a player row.
type Row interface {
	Get(col string) (float64, bool)
}

// Expr is a node in a parsed formula.
type Expr interface {
	// Eval computes the value for one row. Missing columns evaluate to NaN.
	Eval(row Row) float64
	// Resolvable reports whether the expression can be computed given the
	// set of available columns.
	Resolvable(has func(col string) bool) bool
	String() string
}

// Number is a numeric literal.
type Number struct{ V float64 }

func (n Number) Eval(Row) float64                  { return n.V }
func (n Number) Resolvable(func(string) bool) bool { return true }
func (n Number) String() string                    { return strconv.FormatFloat(n.V, 'g', -1, 64) }

// Column references a named column of the row.
type Column struct{ Name string }

func (c Column) Eval(row Row) float64 {
	v, ok := row.Get(c.Name)
	if !ok {
		return math.NaN()
	}
	return v
}

func (c Column) Resolvable(has func(string) bool) bool { return has(c.Name) }

func (c Column) String() string {
	if isPlainIdent(c.Name) {
		return c.Name
	}
	return "`" + c.Name + "`"
}

// Neg is unary minus.
type Neg struct{ X Expr }

func (n Neg) Eval(row Row) float64                  { return -n.X.Eval(row) }
func (n Neg) Resolvable(has func(string) bool) bool { return n.X.Resolvable(has) }
func (n Neg) String() string                        { return "-" + n.X.String() }

// Binary is an arithmetic operator applied to two operands.
type Binary struct {
	Op   byte // one of + - * /
	L, R Expr
}

func (b Binary) Eval(row Row) float64 {
	l, r := b.L.Eval(row), b.R.Eval(row)
	switch b.Op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return SafeDiv(l, r)
	}
	return math.NaN()
}

func (b Binary) Resolvable(has func(string) bool) bool {
	return b.L.Resolvable(has) && b.R.Resolvable(has)
}

func (b Binary) String() string {
	return "(" + b.L.String() + " " + string(b.Op) + " " + b.R.String() + ")"
}

// Call applies a registered function.
type Call struct {
	Fn   string
	Args []Expr
	fn   Func
}

func (c Call) Eval(row Row) float64 {
	vals := make([]float64, len(c.Args))
	for i, a := range c.Args {
		vals[i] = a.Eval(row)
	}
	return c.fn.Apply(vals)
}

func (c Call) Resolvable(has func(string) bool) bool {
	if c.fn.AnyArg {
		for _, a := range c.Args {
			if a.Resolvable(has) {
				return true
			}
		}
		return false
	}
	for _, a := range c.Args {
		if !a.Resolvable(has) {
			return false
		}
	}
	return true
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(parts, ", ") + ")"
}

// SafeDiv divides a by b, returning NaN when b is not positive or either
// operand is unknown.
func SafeDiv(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) || b <= 0 {
		return math.NaN()
	}
	return a / b
}

// Columns returns every column name the expression references.
func Columns(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Column:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case Neg:
			walk(n.X)
		case Binary:
			walk(n.L)
			walk(n.R)
		case Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune, first bool) bool {
	switch {
	case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return true
	case !first && (r >= '0' && r <= '9'):
		return true
	}
	return false
}

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
