package sexp

import (
	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// EncodeTerm serializes a term against a registry: calls become
// `(engine-name arg ...)`, variables bare symbols, literals native tokens,
// unit the empty list. Every callable in the tree must be registered.
func EncodeTerm(decls *decl.Declarations, e decl.ExprDecl) (Node, error) {
	switch d := e.(type) {
	case decl.VarDecl:
		return Symbol(d.Name), nil
	case decl.LitDecl:
		return encodeLit(d.Value), nil
	case decl.CallDecl:
		name, err := decls.EngineName(d.Ref)
		if err != nil {
			return nil, err
		}
		out := List{Symbol(name)}
		for _, a := range d.Args {
			n, err := EncodeTerm(decls, a)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, errorf("unknown term node %T", e)
	}
}

func encodeLit(v decl.LitValue) Node {
	switch l := v.(type) {
	case decl.IntLit:
		return Int(l)
	case decl.FloatLit:
		return Float(l)
	case decl.StringLit:
		return Str(l)
	case decl.BoolLit:
		if l {
			return Symbol("true")
		}
		return Symbol("false")
	default:
		return List{}
	}
}

// DecodeTerm parses a serialized term back into a typed expression,
// re-typing it against the registry. Calls resolve through the
// engine-name mapping; argument types drive type-variable inference
// exactly as at build time, so decoding a printed term reconstructs a
// structurally equal TypedExprDecl.
//
// vars types free variables by name; ground terms (the usual engine reply
// shape) need none.
func DecodeTerm(decls *decl.Declarations, n Node, vars map[string]decl.JustTypeRef) (decl.TypedExprDecl, error) {
	e, err := decodeExpr(expr.NewBuilder(decls), n, vars)
	if err != nil {
		return decl.TypedExprDecl{}, err
	}
	return e.Typed(), nil
}

func decodeExpr(b *expr.Builder, n Node, vars map[string]decl.JustTypeRef) (expr.Expr, error) {
	switch t := n.(type) {
	case Int:
		return b.Int(int64(t)), nil
	case Float:
		return b.Float(float64(t)), nil
	case Str:
		return b.String(string(t)), nil
	case Symbol:
		switch t {
		case "true":
			return b.Bool(true), nil
		case "false":
			return b.Bool(false), nil
		}
		typ, ok := vars[string(t)]
		if !ok {
			return expr.Expr{}, errorf("variable %s has no declared type", t)
		}
		return b.Var(string(t), typ)
	case List:
		if len(t) == 0 {
			return b.Unit(), nil
		}
		head, ok := t[0].(Symbol)
		if !ok {
			return expr.Expr{}, errorf("call head must be a symbol, got %s", t[0])
		}
		args := make([]any, 0, len(t)-1)
		for _, a := range t[1:] {
			arg, err := decodeExpr(b, a, vars)
			if err != nil {
				return expr.Expr{}, err
			}
			args = append(args, arg)
		}
		// The inequality relation shares one engine name across sorts;
		// the first operand picks the method.
		if head == "!=" && len(args) == 2 {
			lhs := args[0].(expr.Expr)
			return b.Call(decl.MethodRef{Sort: lhs.Type().Name, Name: decl.NeMethod}, args...)
		}
		ref, ok := b.Decls().RefForEngineName(string(head))
		if !ok {
			return expr.Expr{}, errorf("no callable registered under engine name %s", head)
		}
		return b.Call(ref, args...)
	default:
		return expr.Expr{}, errorf("unknown node %T", n)
	}
}
