package program

import (
	"strings"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
	"github.com/wbthomason/egglog-go/internal/expr"
	"github.com/wbthomason/egglog-go/internal/resolve"
	"github.com/wbthomason/egglog-go/internal/sexp"
)

// parseTypeString reads a sort reference of the form Name, Name[Arg, ...],
// or a promotion union such as "integer | Num", and resolves it against
// the registry. Unknown sorts and arity mismatches fail here rather than
// at declaration time.
func parseTypeString(decls *decl.Declarations, s string) (decl.JustTypeRef, error) {
	ann, err := parseAnnotation(s)
	if err != nil {
		return decl.JustTypeRef{}, err
	}
	ref, err := resolve.New(decls).Resolve(ann)
	if err != nil {
		return decl.JustTypeRef{}, err
	}
	return decl.Resolve(ref)
}

// parseAnnotation reads one type annotation. A top-level "|" splits a
// two-member union; the literal kinds spell "integer", "string", and
// "float".
func parseAnnotation(s string) (resolve.Annotation, error) {
	s = strings.TrimSpace(s)
	if a, b, ok := splitTop(s, '|'); ok {
		left, err := parseAnnotation(a)
		if err != nil {
			return nil, err
		}
		right, err := parseAnnotation(b)
		if err != nil {
			return nil, err
		}
		return resolve.Union{A: left, B: right}, nil
	}

	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, "], \t") {
			return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
				"malformed type %q", s)
		}
		if kind, ok := litKind(s); ok {
			return resolve.Lit{Kind: kind}, nil
		}
		return resolve.Named{Name: s}, nil
	}

	name := strings.TrimSpace(s[:open])
	if name == "" {
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"empty type name in %q", s)
	}
	if !strings.HasSuffix(s, "]") {
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"unterminated type application in %q", s)
	}
	inner := s[open+1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, decl.Errorf(decl.ErrCodeUnsupportedAnnotation,
			"empty type application in %q", s)
	}
	named := resolve.Named{Name: name}
	for {
		head, rest, more := splitTop(inner, ',')
		if !more {
			head = inner
		}
		arg, err := parseAnnotation(head)
		if err != nil {
			return nil, err
		}
		named.Args = append(named.Args, arg)
		if !more {
			return named, nil
		}
		inner = rest
	}
}

// splitTop splits s at its first occurrence of sep outside any bracketed
// argument list.
func splitTop(s string, sep byte) (string, string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case sep:
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// bindTypeVars rewrites bare names matching an enclosing sort's declared
// type-parameter names into type-variable annotations.
func bindTypeVars(a resolve.Annotation, params map[string]bool) resolve.Annotation {
	switch ann := a.(type) {
	case resolve.Named:
		if len(ann.Args) == 0 && params[ann.Name] {
			return resolve.TypeVar{Name: ann.Name}
		}
		for i, arg := range ann.Args {
			ann.Args[i] = bindTypeVars(arg, params)
		}
		return ann
	case resolve.Union:
		ann.A = bindTypeVars(ann.A, params)
		ann.B = bindTypeVars(ann.B, params)
		return ann
	}
	return a
}

func litKind(name string) (resolve.LitKind, bool) {
	switch resolve.LitKind(name) {
	case resolve.LitInt, resolve.LitString, resolve.LitFloat:
		return resolve.LitKind(name), true
	}
	return "", false
}

// ParseTerm reads one s-expression term and types it against the module's
// registry, with vars supplying pattern-variable types.
func ParseTerm(decls *decl.Declarations, s string, vars map[string]decl.JustTypeRef) (expr.Expr, error) {
	node, err := sexp.ParseOne(s)
	if err != nil {
		return expr.Expr{}, err
	}
	typed, err := sexp.DecodeTerm(decls, node, vars)
	if err != nil {
		return expr.Expr{}, err
	}
	return expr.FromTyped(typed), nil
}

// ParseFact reads one fact: (= a b ...) builds an equality, anything else
// must decode to a relation term.
func ParseFact(decls *decl.Declarations, s string, vars map[string]decl.JustTypeRef) (dsl.Fact, error) {
	node, err := sexp.ParseOne(s)
	if err != nil {
		return dsl.Fact{}, err
	}
	if list, ok := node.(sexp.List); ok && len(list) > 0 {
		if sym, ok := list[0].(sexp.Symbol); ok && sym == "=" {
			exprs := make([]expr.Expr, 0, len(list)-1)
			for _, n := range list[1:] {
				typed, err := sexp.DecodeTerm(decls, n, vars)
				if err != nil {
					return dsl.Fact{}, err
				}
				exprs = append(exprs, expr.FromTyped(typed))
			}
			return dsl.Eq(exprs...)
		}
	}
	typed, err := sexp.DecodeTerm(decls, node, vars)
	if err != nil {
		return dsl.Fact{}, err
	}
	return dsl.Relation(expr.FromTyped(typed))
}
