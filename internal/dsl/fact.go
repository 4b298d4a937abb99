package dsl

import (
	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// Fact is a built, type-checked fact.
type Fact struct {
	d decl.Fact
}

// Decl returns the underlying fact declaration.
func (f Fact) Decl() decl.Fact { return f.d }

// Eq asserts engine equality of two or more same-sort terms.
func Eq(exprs ...expr.Expr) (Fact, error) {
	if len(exprs) < 2 {
		return Fact{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"eq needs at least two terms, got %d", len(exprs))
	}
	first := exprs[0].Type()
	ds := make([]decl.ExprDecl, len(exprs))
	for i, e := range exprs {
		if !e.Type().Equal(first) {
			return Fact{}, &decl.Error{
				Code:     decl.ErrCodeTypeMismatch,
				Message:  "eq terms must share one sort",
				Expected: first.String(),
				Actual:   e.Type().String(),
			}
		}
		ds[i] = e.Decl()
	}
	return Fact{d: decl.EqFact{Exprs: ds}}, nil
}

// Relation lifts a boolean-relation term into a fact. Non-relation terms
// have no truth value and are rejected.
func Relation(e expr.Expr) (Fact, error) {
	if !e.IsRelation() {
		return Fact{}, &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  "only relation terms can stand as facts",
			Expected: decl.SortUnit,
			Actual:   e.Type().String(),
		}
	}
	return Fact{d: decl.ExprFact{Expr: e.Decl()}}, nil
}

// FactLike converts a value to a Fact: Facts pass through, relation
// expressions lift via Relation.
func FactLike(v any) (Fact, error) {
	switch f := v.(type) {
	case Fact:
		return f, nil
	case expr.Expr:
		return Relation(f)
	default:
		return Fact{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"cannot use %T as a fact", v)
	}
}

func factLikes(vs []any) ([]Fact, error) {
	out := make([]Fact, len(vs))
	for i, v := range vs {
		f, err := FactLike(v)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func factDecls(fs []Fact) []decl.Fact {
	out := make([]decl.Fact, len(fs))
	for i, f := range fs {
		out[i] = f.d
	}
	return out
}

// factVars collects variable names over a fact's terms.
func factVars(f decl.Fact, into map[string]bool) {
	switch d := f.(type) {
	case decl.EqFact:
		for _, e := range d.Exprs {
			for _, v := range decl.Vars(e) {
				into[v] = true
			}
		}
	case decl.ExprFact:
		for _, v := range decl.Vars(d.Expr) {
			into[v] = true
		}
	}
}
