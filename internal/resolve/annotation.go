package resolve

import "strings"

// Annotation is a sealed interface over the annotation AST. Only TypeVar,
// Named, Union, and Lit implement it.
type Annotation interface {
	annotation()

	// String renders the annotation for error messages.
	String() string
}

// TypeVar references one of the enclosing sort's type parameters by name.
type TypeVar struct {
	Name string
}

func (TypeVar) annotation() {}

func (a TypeVar) String() string { return a.Name }

// Named references a sort by name, optionally applied to arguments.
type Named struct {
	Name string
	Args []Annotation
}

func (Named) annotation() {}

func (a Named) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return a.Name + "[" + strings.Join(parts, ", ") + "]"
}

// Union is a two-member union. The only supported shape pairs a literal
// kind with a registered sort, modeling implicit literal promotion.
type Union struct {
	A Annotation
	B Annotation
}

func (Union) annotation() {}

func (a Union) String() string { return a.A.String() + " | " + a.B.String() }

// Lit is a primitive literal kind. Valid only as one member of a Union.
type Lit struct {
	Kind LitKind
}

func (Lit) annotation() {}

func (a Lit) String() string { return string(a.Kind) }

// LitKind enumerates the promotable literal kinds.
type LitKind string

const (
	LitInt    LitKind = "integer"
	LitString LitKind = "string"
	LitFloat  LitKind = "float"
)
