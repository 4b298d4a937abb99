package resolve

import (
	"github.com/wbthomason/egglog-go/internal/decl"
)

// Resolver resolves annotations against one registry within the context of
// an optional enclosing sort.
type Resolver struct {
	decls *decl.Declarations

	// selfSort is the enclosing sort for method signatures, empty for
	// top-level functions.
	selfSort string

	// typeParams is the enclosing sort's ordered type-parameter names.
	typeParams []string
}

// New creates a resolver with no enclosing sort.
func New(decls *decl.Declarations) *Resolver {
	return &Resolver{decls: decls}
}

// For creates a resolver scoped to an enclosing sort and its ordered
// type-parameter names.
func For(decls *decl.Declarations, selfSort string, typeParams []string) *Resolver {
	return &Resolver{decls: decls, selfSort: selfSort, typeParams: typeParams}
}

// SelfType is the type of the implicit receiver: the enclosing sort applied
// to its own type parameters in order.
func (r *Resolver) SelfType() decl.TypeRefWithVars {
	args := make([]decl.TypeRef, len(r.typeParams))
	for i := range r.typeParams {
		args[i] = decl.ClassTypeVarRef{Index: i}
	}
	return decl.TypeRefWithVars{Name: r.selfSort, Args: args}
}

// Resolve maps an annotation to a type reference:
//
//   - a bare type variable resolves to the ClassTypeVarRef at its
//     declared position;
//   - a two-member union of exactly one literal kind and one registered
//     sort resolves to the sort member (implicit literal promotion);
//   - a generic application whose origin is the enclosing sort resolves
//     each argument recursively into a TypeRefWithVars;
//   - a reference to a registered sort resolves by name;
//   - anything else fails with an annotation-resolution error.
func (r *Resolver) Resolve(a Annotation) (decl.TypeRef, error) {
	switch ann := a.(type) {
	case TypeVar:
		for i, name := range r.typeParams {
			if name == ann.Name {
				return decl.ClassTypeVarRef{Index: i}, nil
			}
		}
		return nil, decl.Errorf(decl.ErrCodeUnresolvedTypeVar,
			"type variable %s is not a parameter of the enclosing sort", ann.Name)

	case Union:
		return r.resolveUnion(ann)

	case Named:
		return r.resolveNamed(ann)

	case Lit:
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"literal kind %s is only valid inside a promotion union", ann)

	default:
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"unsupported annotation %T", a)
	}
}

// resolveUnion handles literal promotion: exactly one member must be a
// literal kind and the other a registered sort. The union resolves to the
// sort member, so a parameter declared "integer-or-Sort" accepts either a
// raw literal or a Sort term at that position.
func (r *Resolver) resolveUnion(u Union) (decl.TypeRef, error) {
	_, aIsLit := u.A.(Lit)
	_, bIsLit := u.B.(Lit)
	switch {
	case aIsLit && bIsLit:
		return nil, decl.Errorf(decl.ErrCodeMalformedUnion,
			"union %s has two literal members; unions exist only for literal promotion", u)
	case !aIsLit && !bIsLit:
		return nil, decl.Errorf(decl.ErrCodeMalformedUnion,
			"union %s has no literal member; unions exist only for literal promotion", u)
	}
	other := u.B
	if bIsLit {
		other = u.A
	}
	named, ok := other.(Named)
	if !ok {
		return nil, decl.Errorf(decl.ErrCodeMalformedUnion,
			"union %s must pair a literal kind with a registered sort", u)
	}
	return r.resolveNamed(named)
}

func (r *Resolver) resolveNamed(n Named) (decl.TypeRef, error) {
	// A generic application of the enclosing sort keeps its argument
	// placeholders; everything else must be a registered sort.
	if n.Name != r.selfSort {
		if !r.decls.HasSort(n.Name) {
			return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
				"annotation %s does not reference a registered sort", n)
		}
	}

	args := make([]decl.TypeRef, len(n.Args))
	allResolved := true
	for i, a := range n.Args {
		ref, err := r.Resolve(a)
		if err != nil {
			return nil, err
		}
		args[i] = ref
		if _, ok := ref.(decl.JustTypeRef); !ok {
			allResolved = false
		}
	}

	if s, err := r.decls.Sort(n.Name); err == nil && s.TypeParams != len(args) {
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"sort %s takes %d type parameters, annotation supplies %d", n.Name, s.TypeParams, len(args))
	}

	if allResolved {
		just := make([]decl.JustTypeRef, len(args))
		for i, a := range args {
			just[i] = a.(decl.JustTypeRef)
		}
		return decl.JustTypeRef{Name: n.Name, Args: just}, nil
	}
	return decl.TypeRefWithVars{Name: n.Name, Args: args}, nil
}

// Signature is the annotated shape of a callable before resolution. The
// first parameter of a method or classmethod carries no annotation; its
// type is supplied contextually.
type Signature struct {
	Return Annotation
	Params []Annotation

	// VarArg, when set, types every trailing argument.
	VarArg Annotation
}

// ResolveFunction resolves a top-level function signature. Return type,
// each parameter, and the variadic tail resolve independently.
func (r *Resolver) ResolveFunction(sig Signature) (*decl.FunctionDecl, error) {
	return r.resolve(sig, nil, false)
}

// ResolveMethod resolves an instance-method signature. The receiver's type
// is the enclosing sort's self type, prepended as the first argument.
func (r *Resolver) ResolveMethod(sig Signature) (*decl.FunctionDecl, error) {
	self := r.SelfType()
	return r.resolve(sig, self, false)
}

// ResolveClassMethod resolves a classmethod signature. The class marker
// consumes the first parameter slot without contributing an argument type.
// For constructors (init true) the self type additionally becomes the
// declared return type, overriding sig.Return.
func (r *Resolver) ResolveClassMethod(sig Signature, init bool) (*decl.FunctionDecl, error) {
	return r.resolve(sig, nil, init)
}

func (r *Resolver) resolve(sig Signature, self decl.TypeRef, init bool) (*decl.FunctionDecl, error) {
	fd := &decl.FunctionDecl{}

	switch {
	case init:
		if r.selfSort == "" {
			return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
				"constructor signatures require an enclosing sort")
		}
		fd.ReturnType = r.SelfType()
	default:
		if sig.Return == nil {
			return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
				"signature has no return annotation")
		}
		ret, err := r.Resolve(sig.Return)
		if err != nil {
			return nil, err
		}
		fd.ReturnType = ret
	}

	if self != nil {
		fd.ArgTypes = append(fd.ArgTypes, self)
	}
	for _, p := range sig.Params {
		at, err := r.Resolve(p)
		if err != nil {
			return nil, err
		}
		fd.ArgTypes = append(fd.ArgTypes, at)
	}
	if sig.VarArg != nil {
		vt, err := r.Resolve(sig.VarArg)
		if err != nil {
			return nil, err
		}
		fd.VarArgType = vt
	}
	return fd, nil
}
