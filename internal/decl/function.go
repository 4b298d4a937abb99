package decl

// FunctionDecl is the resolved signature and engine-facing metadata of a
// callable.
//
// ArgTypes and ReturnType may contain ClassTypeVarRef placeholders when the
// callable is declared on a generic sort; they are instantiated per call
// site. VarArgType, when non-nil, types every argument past the fixed ones.
type FunctionDecl struct {
	ReturnType TypeRef
	ArgTypes   []TypeRef
	VarArgType TypeRef

	// Cost biases extraction away from this callable. Nil means the
	// engine default.
	Cost *int64

	// Default is the value stored when the call is asserted without one.
	Default ExprDecl

	// Merge resolves two values asserted for the same call under
	// different derivations; the term may reference the variables "old"
	// and "new". MergeActions run after the merge, in order.
	Merge        ExprDecl
	MergeActions []Action
}

// Equal reports whether two declarations are interchangeable. Used to
// decide whether a re-registration is a no-op or a conflict.
func (d *FunctionDecl) Equal(other *FunctionDecl) bool {
	if d == nil || other == nil {
		return d == other
	}
	if !typeRefEqual(d.ReturnType, other.ReturnType) ||
		len(d.ArgTypes) != len(other.ArgTypes) ||
		!typeRefEqual(d.VarArgType, other.VarArgType) {
		return false
	}
	for i := range d.ArgTypes {
		if !typeRefEqual(d.ArgTypes[i], other.ArgTypes[i]) {
			return false
		}
	}
	if (d.Cost == nil) != (other.Cost == nil) || (d.Cost != nil && *d.Cost != *other.Cost) {
		return false
	}
	if !optExprEqual(d.Default, other.Default) || !optExprEqual(d.Merge, other.Merge) {
		return false
	}
	if len(d.MergeActions) != len(other.MergeActions) {
		return false
	}
	for i := range d.MergeActions {
		if !ActionEqual(d.MergeActions[i], other.MergeActions[i]) {
			return false
		}
	}
	return true
}

// HasTypeVars reports whether any part of the signature still contains a
// ClassTypeVarRef. Such declarations are registered locally but produce no
// engine commands; only their concrete instantiations reach the engine.
func (d *FunctionDecl) HasTypeVars() bool {
	refs := append([]TypeRef{d.ReturnType, d.VarArgType}, d.ArgTypes...)
	for _, r := range refs {
		if r != nil && containsTypeVars(r) {
			return true
		}
	}
	return false
}

func containsTypeVars(r TypeRef) bool {
	switch t := r.(type) {
	case ClassTypeVarRef:
		return true
	case TypeRefWithVars:
		for _, a := range t.Args {
			if containsTypeVars(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func typeRefEqual(a, b TypeRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case ClassTypeVarRef:
		y, ok := b.(ClassTypeVarRef)
		return ok && x.Index == y.Index
	case JustTypeRef:
		y, ok := b.(JustTypeRef)
		return ok && x.Equal(y)
	case TypeRefWithVars:
		y, ok := b.(TypeRefWithVars)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !typeRefEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func optExprEqual(a, b ExprDecl) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return ExprEqual(a, b)
}
