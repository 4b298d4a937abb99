package decl

import (
	"fmt"
	"strings"
)

// TypeRef is a sealed interface over the three forms a type reference can
// take. Only ClassTypeVarRef, TypeRefWithVars, and JustTypeRef implement it.
//
// ClassTypeVarRef and TypeRefWithVars exist only inside this process, in
// the signatures of callables declared on generic sorts. JustTypeRef is the
// only form serialized to the engine.
type TypeRef interface {
	typeRef()

	// String renders the reference for diagnostics.
	String() string
}

// ClassTypeVarRef is an unresolved placeholder for the i-th type parameter
// of the enclosing generic sort.
type ClassTypeVarRef struct {
	Index int
}

func (ClassTypeVarRef) typeRef() {}

func (r ClassTypeVarRef) String() string {
	return fmt.Sprintf("$%d", r.Index)
}

// TypeRefWithVars is a named type application whose arguments may still
// contain ClassTypeVarRef placeholders.
type TypeRefWithVars struct {
	Name string
	Args []TypeRef
}

func (TypeRefWithVars) typeRef() {}

func (r TypeRefWithVars) String() string {
	return formatTypeApp(r.Name, len(r.Args), func(i int) string { return r.Args[i].String() })
}

// JustTypeRef is a fully resolved type reference. It is the only form that
// crosses the engine boundary.
type JustTypeRef struct {
	Name string
	Args []JustTypeRef
}

func (JustTypeRef) typeRef() {}

func (r JustTypeRef) String() string {
	return formatTypeApp(r.Name, len(r.Args), func(i int) string { return r.Args[i].String() })
}

// Equal reports structural equality of two resolved type references.
func (r JustTypeRef) Equal(other JustTypeRef) bool {
	if r.Name != other.Name || len(r.Args) != len(other.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// ToVars widens a resolved reference back into the with-vars form. Used
// when a resolved type is needed where a signature type is expected, e.g.
// the self type of a non-generic sort.
func (r JustTypeRef) ToVars() TypeRefWithVars {
	args := make([]TypeRef, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.ToVars()
	}
	return TypeRefWithVars{Name: r.Name, Args: args}
}

// Resolve narrows a TypeRef to a JustTypeRef, failing with an
// unresolved-type-var error if any placeholder remains.
func Resolve(r TypeRef) (JustTypeRef, error) {
	switch t := r.(type) {
	case JustTypeRef:
		return t, nil
	case ClassTypeVarRef:
		return JustTypeRef{}, Errorf(ErrCodeUnresolvedTypeVar,
			"type variable %s cannot be resolved without an instantiation", t)
	case TypeRefWithVars:
		args := make([]JustTypeRef, len(t.Args))
		for i, a := range t.Args {
			resolved, err := Resolve(a)
			if err != nil {
				return JustTypeRef{}, err
			}
			args[i] = resolved
		}
		return JustTypeRef{Name: t.Name, Args: args}, nil
	default:
		return JustTypeRef{}, Errorf(ErrCodeUnsupportedAnnotation, "unknown type ref %T", r)
	}
}

// Substitute replaces every ClassTypeVarRef in r with the binding at its
// index. Returns an unresolved-type-var error if an index has no binding;
// a slot with an empty Name counts as unbound.
func Substitute(r TypeRef, bindings []JustTypeRef) (JustTypeRef, error) {
	switch t := r.(type) {
	case JustTypeRef:
		return t, nil
	case ClassTypeVarRef:
		if t.Index < 0 || t.Index >= len(bindings) || bindings[t.Index].Name == "" {
			return JustTypeRef{}, Errorf(ErrCodeUnresolvedTypeVar,
				"no binding for type variable %s", t)
		}
		return bindings[t.Index], nil
	case TypeRefWithVars:
		args := make([]JustTypeRef, len(t.Args))
		for i, a := range t.Args {
			sub, err := Substitute(a, bindings)
			if err != nil {
				return JustTypeRef{}, err
			}
			args[i] = sub
		}
		return JustTypeRef{Name: t.Name, Args: args}, nil
	default:
		return JustTypeRef{}, Errorf(ErrCodeUnsupportedAnnotation, "unknown type ref %T", r)
	}
}

// Unify matches a declared signature type against an actual resolved type,
// recording type-variable bindings as it goes. bindings must be sized to
// the enclosing sort's type-parameter count; unbound slots have an empty
// Name. A conflict between an existing binding and the actual type is a
// type mismatch.
func Unify(declared TypeRef, actual JustTypeRef, bindings []JustTypeRef) error {
	switch t := declared.(type) {
	case ClassTypeVarRef:
		if t.Index < 0 || t.Index >= len(bindings) {
			return Errorf(ErrCodeUnresolvedTypeVar, "type variable %s out of range", t)
		}
		if bindings[t.Index].Name == "" {
			bindings[t.Index] = actual
			return nil
		}
		if !bindings[t.Index].Equal(actual) {
			return &Error{
				Code:     ErrCodeTypeMismatch,
				Message:  fmt.Sprintf("conflicting bindings for type variable %s", t),
				Expected: bindings[t.Index].String(),
				Actual:   actual.String(),
			}
		}
		return nil
	case JustTypeRef:
		if !t.Equal(actual) {
			return &Error{
				Code:     ErrCodeTypeMismatch,
				Message:  "type does not match declaration",
				Expected: t.String(),
				Actual:   actual.String(),
			}
		}
		return nil
	case TypeRefWithVars:
		if t.Name != actual.Name || len(t.Args) != len(actual.Args) {
			return &Error{
				Code:     ErrCodeTypeMismatch,
				Message:  "type does not match declaration",
				Expected: t.String(),
				Actual:   actual.String(),
			}
		}
		for i := range t.Args {
			if err := Unify(t.Args[i], actual.Args[i], bindings); err != nil {
				return err
			}
		}
		return nil
	default:
		return Errorf(ErrCodeUnsupportedAnnotation, "unknown type ref %T", declared)
	}
}

func formatTypeApp(name string, n int, arg func(int) string) string {
	if n == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg(i))
	}
	b.WriteByte(']')
	return b.String()
}
