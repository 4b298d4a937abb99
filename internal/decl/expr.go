package decl

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprDecl is a sealed interface over term-tree nodes. Only VarDecl,
// LitDecl, and CallDecl implement it.
type ExprDecl interface {
	exprDecl()

	// String renders the term in s-expression shape for diagnostics.
	String() string
}

// VarDecl is a pattern or let-bound variable occurrence.
type VarDecl struct {
	Name string
}

func (VarDecl) exprDecl() {}

func (d VarDecl) String() string { return d.Name }

// LitDecl is a literal leaf.
type LitDecl struct {
	Value LitValue
}

func (LitDecl) exprDecl() {}

func (d LitDecl) String() string { return d.Value.String() }

// CallDecl applies a callable to ordered arguments. Two CallDecls are equal
// iff their refs and argument trees are equal, recursively; this is the
// unit of identity exchanged with the engine.
type CallDecl struct {
	Ref  CallableRef
	Args []ExprDecl
}

func (CallDecl) exprDecl() {}

func (d CallDecl) String() string {
	if len(d.Args) == 0 {
		return fmt.Sprintf("(%s)", d.Ref)
	}
	parts := make([]string, 0, len(d.Args)+1)
	parts = append(parts, d.Ref.String())
	for _, a := range d.Args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// LitValue is a sealed interface over literal kinds: signed 64-bit
// integers, strings, floats, booleans, and the unit value.
type LitValue interface {
	litValue()

	// String renders the literal as it appears on the wire.
	String() string
}

// IntLit is a signed 64-bit integer literal. Always int64, never a float.
type IntLit int64

func (IntLit) litValue() {}

func (v IntLit) String() string { return strconv.FormatInt(int64(v), 10) }

// FloatLit is a float literal.
type FloatLit float64

func (FloatLit) litValue() {}

func (v FloatLit) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// StringLit is a string literal.
type StringLit string

func (StringLit) litValue() {}

func (v StringLit) String() string { return strconv.Quote(string(v)) }

// BoolLit is a boolean literal.
type BoolLit bool

func (BoolLit) litValue() {}

func (v BoolLit) String() string {
	if v {
		return "true"
	}
	return "false"
}

// UnitLit is the unit value.
type UnitLit struct{}

func (UnitLit) litValue() {}

func (UnitLit) String() string { return "()" }

// SortForLit maps a literal to its builtin sort.
func SortForLit(v LitValue) JustTypeRef {
	switch v.(type) {
	case IntLit:
		return JustTypeRef{Name: SortInt}
	case FloatLit:
		return JustTypeRef{Name: SortFloat}
	case StringLit:
		return JustTypeRef{Name: SortString}
	case BoolLit:
		return JustTypeRef{Name: SortBool}
	default:
		return JustTypeRef{Name: SortUnit}
	}
}

// ExprEqual reports structural equality of two term trees.
func ExprEqual(a, b ExprDecl) bool {
	switch x := a.(type) {
	case VarDecl:
		y, ok := b.(VarDecl)
		return ok && x.Name == y.Name
	case LitDecl:
		y, ok := b.(LitDecl)
		return ok && x.Value == y.Value
	case CallDecl:
		y, ok := b.(CallDecl)
		if !ok || x.Ref != y.Ref || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !ExprEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypedExprDecl pairs a term tree with its resolved type.
type TypedExprDecl struct {
	Type JustTypeRef
	Expr ExprDecl
}

func (t TypedExprDecl) String() string {
	return fmt.Sprintf("%s: %s", t.Expr, t.Type)
}

// Equal reports structural equality of both the term and its type.
func (t TypedExprDecl) Equal(other TypedExprDecl) bool {
	return t.Type.Equal(other.Type) && ExprEqual(t.Expr, other.Expr)
}

// Vars collects the names of every variable occurring in the term, in
// first-occurrence order.
func Vars(e ExprDecl) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(ExprDecl)
	walk = func(e ExprDecl) {
		switch d := e.(type) {
		case VarDecl:
			if !seen[d.Name] {
				seen[d.Name] = true
				names = append(names, d.Name)
			}
		case CallDecl:
			for _, a := range d.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return names
}
