package expr

import (
	"errors"
	"fmt"

	"github.com/wbthomason/egglog-go/internal/decl"
)

// Expr is a typed term handle. The zero value is invalid; every Expr
// produced by a Builder carries its resolved type tag, so type queries are
// tag comparisons rather than dynamic checks.
type Expr struct {
	typed decl.TypedExprDecl
}

// Typed returns the underlying typed declaration.
func (e Expr) Typed() decl.TypedExprDecl { return e.typed }

// Type returns the resolved type tag.
func (e Expr) Type() decl.JustTypeRef { return e.typed.Type }

// Decl returns the underlying term tree.
func (e Expr) Decl() decl.ExprDecl { return e.typed.Expr }

// IsRelation reports whether the term is a boolean-relation term (typed
// Unit). Relation terms are only meaningful inside facts and conditions.
func (e Expr) IsRelation() bool { return e.typed.Type.Name == decl.SortUnit }

func (e Expr) String() string { return e.typed.String() }

// FromTyped wraps an already-resolved typed declaration, e.g. one parsed
// back out of an engine reply.
func FromTyped(t decl.TypedExprDecl) Expr { return Expr{typed: t} }

// Builder constructs typed expressions against one registry.
type Builder struct {
	decls *decl.Declarations
}

// NewBuilder creates a builder over the given registry.
func NewBuilder(decls *decl.Declarations) *Builder {
	return &Builder{decls: decls}
}

// Decls returns the registry the builder validates against.
func (b *Builder) Decls() *decl.Declarations { return b.decls }

// Var creates a typed pattern variable. The sort must be registered.
func (b *Builder) Var(name string, typ decl.JustTypeRef) (Expr, error) {
	if !b.decls.HasSort(typ.Name) {
		return Expr{}, &decl.Error{Code: decl.ErrCodeNotFound, Message: "sort is not registered", Ref: typ.Name}
	}
	return Expr{typed: decl.TypedExprDecl{Type: typ, Expr: decl.VarDecl{Name: name}}}, nil
}

// Vars creates several variables of the same sort.
func (b *Builder) Vars(typ decl.JustTypeRef, names ...string) ([]Expr, error) {
	out := make([]Expr, len(names))
	for i, n := range names {
		v, err := b.Var(n, typ)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Int creates an i64 literal.
func (b *Builder) Int(v int64) Expr { return litExpr(decl.IntLit(v)) }

// Float creates an f64 literal.
func (b *Builder) Float(v float64) Expr { return litExpr(decl.FloatLit(v)) }

// String creates a String literal.
func (b *Builder) String(v string) Expr { return litExpr(decl.StringLit(v)) }

// Bool creates a Bool literal.
func (b *Builder) Bool(v bool) Expr { return litExpr(decl.BoolLit(v)) }

// Unit creates the unit value.
func (b *Builder) Unit() Expr { return litExpr(decl.UnitLit{}) }

func litExpr(v decl.LitValue) Expr {
	return Expr{typed: decl.TypedExprDecl{Type: decl.SortForLit(v), Expr: decl.LitDecl{Value: v}}}
}

// Lift converts a raw Go value to a typed expression. Exprs pass through;
// integers, strings, floats, and booleans lift to literals typed by their
// builtin sort. Anything else is a type mismatch.
func (b *Builder) Lift(v any) (Expr, error) {
	switch val := v.(type) {
	case Expr:
		return val, nil
	case decl.TypedExprDecl:
		return FromTyped(val), nil
	case int:
		return b.Int(int64(val)), nil
	case int64:
		return b.Int(val), nil
	case float64:
		return b.Float(val), nil
	case string:
		return b.String(val), nil
	case bool:
		return b.Bool(val), nil
	default:
		return Expr{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"cannot use %T as an expression", v)
	}
}

// Call applies a callable to arguments, validating each operand against the
// callable's declaration. Raw Go literals among args lift automatically.
//
// For callables declared on generic sorts, type-variable bindings are
// inferred by unifying declared parameter types with the actual argument
// types. A return type that mentions a variable no argument binds cannot be
// resolved and is an error; use CallInstantiated to bind it explicitly.
func (b *Builder) Call(ref decl.CallableRef, args ...any) (Expr, error) {
	return b.call(ref, nil, args...)
}

// CallInstantiated is Call with the enclosing sort's type parameters bound
// explicitly, for call sites inference cannot reach (e.g. a classmethod of
// a generic sort whose parameters appear only in the return type).
func (b *Builder) CallInstantiated(ref decl.CallableRef, typeArgs []decl.JustTypeRef, args ...any) (Expr, error) {
	return b.call(ref, typeArgs, args...)
}

func (b *Builder) call(ref decl.CallableRef, typeArgs []decl.JustTypeRef, args ...any) (Expr, error) {
	fd, err := b.decls.Lookup(ref)
	if err != nil {
		return Expr{}, err
	}

	nParams, err := b.typeParamCount(ref)
	if err != nil {
		return Expr{}, err
	}
	bindings := make([]decl.JustTypeRef, nParams)
	if typeArgs != nil {
		if len(typeArgs) != nParams {
			return Expr{}, decl.Errorf(decl.ErrCodeTypeMismatch,
				"%s takes %d type arguments, got %d", ref, nParams, len(typeArgs))
		}
		copy(bindings, typeArgs)
	}

	lifted := make([]Expr, len(args))
	for i, a := range args {
		e, err := b.Lift(a)
		if err != nil {
			return Expr{}, err
		}
		lifted[i] = e
	}

	if fd.VarArgType == nil {
		if len(lifted) != len(fd.ArgTypes) {
			return Expr{}, decl.Errorf(decl.ErrCodeTypeMismatch,
				"%s takes %d arguments, got %d", ref, len(fd.ArgTypes), len(lifted))
		}
	} else if len(lifted) < len(fd.ArgTypes) {
		return Expr{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"%s takes at least %d arguments, got %d", ref, len(fd.ArgTypes), len(lifted))
	}

	argDecls := make([]decl.ExprDecl, len(lifted))
	for i, e := range lifted {
		declared := fd.VarArgType
		if i < len(fd.ArgTypes) {
			declared = fd.ArgTypes[i]
		}
		if err := decl.Unify(declared, e.Type(), bindings); err != nil {
			return Expr{}, wrapArgMismatch(err, ref, i)
		}
		argDecls[i] = e.Decl()
	}

	ret, err := decl.Substitute(fd.ReturnType, bindings)
	if err != nil {
		return Expr{}, err
	}

	return Expr{typed: decl.TypedExprDecl{
		Type: ret,
		Expr: decl.CallDecl{Ref: ref, Args: argDecls},
	}}, nil
}

// Constant references a registered named constant as a zero-argument call.
func (b *Builder) Constant(name string) (Expr, error) {
	return b.Call(decl.ConstantRef{Name: name})
}

// ClassVariable references a sort-scoped constant as a zero-argument call.
func (b *Builder) ClassVariable(sort, name string) (Expr, error) {
	return b.Call(decl.ClassVariableRef{Sort: sort, Name: name})
}

// Method calls an instance method on a receiver. The receiver supplies the
// sort and becomes the implicit first argument.
func (b *Builder) Method(recv Expr, name string, args ...any) (Expr, error) {
	ref := decl.MethodRef{Sort: recv.Type().Name, Name: name}
	return b.Call(ref, append([]any{recv}, args...)...)
}

// New calls a sort's constructor.
func (b *Builder) New(sort string, args ...any) (Expr, error) {
	return b.Call(decl.ClassMethodRef{Sort: sort, Name: decl.InitMethod}, args...)
}

// Ne builds the symbolic inequality relation between two terms of the same
// sort. The result is a relation term for use inside facts and conditions
// only; it has no host truth value.
func (b *Builder) Ne(lhs, rhs Expr) (Expr, error) {
	if !lhs.Type().Equal(rhs.Type()) {
		return Expr{}, &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  "cannot compare terms of different sorts",
			Expected: lhs.Type().String(),
			Actual:   rhs.Type().String(),
		}
	}
	return b.Call(decl.MethodRef{Sort: lhs.Type().Name, Name: decl.NeMethod}, lhs, rhs)
}

func (b *Builder) typeParamCount(ref decl.CallableRef) (int, error) {
	var sortName string
	switch r := ref.(type) {
	case decl.MethodRef:
		sortName = r.Sort
	case decl.ClassMethodRef:
		sortName = r.Sort
	case decl.ClassVariableRef:
		sortName = r.Sort
	default:
		return 0, nil
	}
	s, err := b.decls.Sort(sortName)
	if err != nil {
		return 0, err
	}
	return s.TypeParams, nil
}

func wrapArgMismatch(err error, ref decl.CallableRef, i int) error {
	var e *decl.Error
	if errors.As(err, &e) && e.Code == decl.ErrCodeTypeMismatch {
		return &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  fmt.Sprintf("argument %d of %s: %s", i, ref, e.Message),
			Ref:      ref.String(),
			Expected: e.Expected,
			Actual:   e.Actual,
		}
	}
	return err
}
