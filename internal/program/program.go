// Package program loads declaration programs from CUE files into modules.
// A program is an explicit list of (name, signature, metadata) entries plus
// rewrites, rules, and bindings; nothing is inferred from host types.
package program

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/expr"
	"github.com/wbthomason/egglog-go/internal/resolve"
)

// Load builds a module from all CUE files in a directory.
func Load(dir string) (*egraph.Module, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("program directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("program path %s is not a directory", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "cue", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// LoadFile builds a module from one CUE file.
func LoadFile(path string) (*egraph.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program %s: %w", path, err)
	}
	value := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// Compile turns a CUE program value into a module. Top-level fields:
//
//	name:     string
//	sort:     {Name: {params?: int, engine?: string}}
//	function: {name: {args: [...string], returns: string, cost?, default?, merge?}}
//	relation: {name: [...string]}
//	constant: {name: string}
//	ruleset:  [...string]
//	rewrite:  [...{lhs, rhs, vars?, when?, ruleset?, name?, bidirectional?}]
//	rule:     [...{when, then, vars?, ruleset?, name?}]
//	let:      [...{name, term}]
//
// Terms and facts are written as s-expressions over the declared names.
func Compile(v cue.Value) (*egraph.Module, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := "program"
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		n, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		name = n
	}
	m := egraph.NewModule(name)

	if err := compileSorts(m, v); err != nil {
		return nil, err
	}
	if err := compileFunctions(m, v); err != nil {
		return nil, err
	}
	if err := compileRelations(m, v); err != nil {
		return nil, err
	}
	if err := compileConstants(m, v); err != nil {
		return nil, err
	}
	if err := compileRulesets(m, v); err != nil {
		return nil, err
	}
	if err := compileRewrites(m, v); err != nil {
		return nil, err
	}
	if err := compileRules(m, v); err != nil {
		return nil, err
	}
	if err := compileLets(m, v); err != nil {
		return nil, err
	}
	return m, nil
}

func compileSorts(m *egraph.Module, v cue.Value) error {
	sortVal := v.LookupPath(cue.ParsePath("sort"))
	if !sortVal.Exists() {
		return nil
	}
	iter, err := sortVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		sortName := iter.Label()
		sort := iter.Value()

		params := 0
		if p := sort.LookupPath(cue.ParsePath("params")); p.Exists() {
			n, err := p.Int64()
			if err != nil {
				return formatCUEError(err)
			}
			params = int(n)
		}
		engineName := ""
		if e := sort.LookupPath(cue.ParsePath("engine")); e.Exists() {
			s, err := e.String()
			if err != nil {
				return formatCUEError(err)
			}
			engineName = s
		}
		if err := m.Sort(sortName, params, engineName); err != nil {
			return fmt.Errorf("sort %s: %w", sortName, err)
		}
		if err := compileSortCallables(m, sortName, params, sort); err != nil {
			return err
		}
	}
	return nil
}

// compileSortCallables reads a sort's optional constructor and methods.
// Annotations inside them may name the sort's type parameters, listed in
// order under vars.
func compileSortCallables(m *egraph.Module, sortName string, params int, v cue.Value) error {
	names, err := stringList(v.LookupPath(cue.ParsePath("vars")))
	if err != nil {
		return fmt.Errorf("sort %s: %w", sortName, err)
	}
	if len(names) > 0 && len(names) != params {
		return &CompileError{
			Field:   "sort." + sortName + ".vars",
			Message: fmt.Sprintf("sort has %d type parameters, vars names %d", params, len(names)),
			Pos:     v.Pos(),
		}
	}
	r := resolve.For(m.Decls(), sortName, names)

	if iv := v.LookupPath(cue.ParsePath("init")); iv.Exists() {
		sig, err := readSignature(iv, names, false)
		if err != nil {
			return fmt.Errorf("sort %s init: %w", sortName, err)
		}
		fd, err := r.ResolveClassMethod(sig, true)
		if err != nil {
			return fmt.Errorf("sort %s init: %w", sortName, err)
		}
		// The constructor goes out under the sort's own engine name, so
		// terms read (Sort args...).
		ename, err := m.Decls().EngineSortName(sortName)
		if err != nil {
			return err
		}
		ref := decl.ClassMethodRef{Sort: sortName, Name: decl.InitMethod}
		if err := m.RegisterCallable(ref, fd, ename); err != nil {
			return fmt.Errorf("sort %s init: %w", sortName, err)
		}
	}

	mv := v.LookupPath(cue.ParsePath("method"))
	if !mv.Exists() {
		return nil
	}
	iter, err := mv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		methodName := iter.Label()
		sig, err := readSignature(iter.Value(), names, true)
		if err != nil {
			return fmt.Errorf("sort %s method %s: %w", sortName, methodName, err)
		}
		fd, err := r.ResolveMethod(sig)
		if err != nil {
			return fmt.Errorf("sort %s method %s: %w", sortName, methodName, err)
		}
		ref := decl.MethodRef{Sort: sortName, Name: methodName}
		if err := m.RegisterCallable(ref, fd, ""); err != nil {
			return fmt.Errorf("sort %s method %s: %w", sortName, methodName, err)
		}
	}
	return nil
}

// readSignature reads args and returns into an unresolved signature. Bare
// names matching a declared type parameter bind as type variables.
func readSignature(v cue.Value, typeVars []string, needReturn bool) (resolve.Signature, error) {
	bound := map[string]bool{}
	for _, n := range typeVars {
		bound[n] = true
	}
	anns, err := annotationList(v.LookupPath(cue.ParsePath("args")))
	if err != nil {
		return resolve.Signature{}, err
	}
	for i, a := range anns {
		anns[i] = bindTypeVars(a, bound)
	}
	sig := resolve.Signature{Params: anns}
	rv := v.LookupPath(cue.ParsePath("returns"))
	switch {
	case rv.Exists():
		s, err := rv.String()
		if err != nil {
			return resolve.Signature{}, formatCUEError(err)
		}
		ann, err := parseAnnotation(s)
		if err != nil {
			return resolve.Signature{}, err
		}
		sig.Return = bindTypeVars(ann, bound)
	case needReturn:
		return resolve.Signature{}, &CompileError{
			Field: "method", Message: "returns is required", Pos: v.Pos(),
		}
	}
	return sig, nil
}

func compileFunctions(m *egraph.Module, v cue.Value) error {
	fnVal := v.LookupPath(cue.ParsePath("function"))
	if !fnVal.Exists() {
		return nil
	}
	iter, err := fnVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		fnName := iter.Label()
		if err := compileFunction(m, fnName, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileFunction(m *egraph.Module, name string, v cue.Value) error {
	returnsVal := v.LookupPath(cue.ParsePath("returns"))
	if !returnsVal.Exists() {
		return &CompileError{Field: "function." + name, Message: "returns is required", Pos: v.Pos()}
	}
	returnsStr, err := returnsVal.String()
	if err != nil {
		return formatCUEError(err)
	}
	retAnn, err := parseAnnotation(returnsStr)
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	argAnns, err := annotationList(v.LookupPath(cue.ParsePath("args")))
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	fd, err := resolve.New(m.Decls()).ResolveFunction(resolve.Signature{
		Return: retAnn,
		Params: argAnns,
	})
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	// Top-level signatures have no enclosing sort, so the return type is
	// always concrete.
	ret, err := decl.Resolve(fd.ReturnType)
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}

	var opts []egraph.FunctionOption
	if c := v.LookupPath(cue.ParsePath("cost")); c.Exists() {
		cost, err := c.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		opts = append(opts, egraph.WithCost(cost))
	}

	// Default and merge terms type-check against the return sort; the
	// merge term sees the colliding values as variables old and new.
	mergeVars := map[string]decl.JustTypeRef{"old": ret, "new": ret}
	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		s, err := d.String()
		if err != nil {
			return formatCUEError(err)
		}
		term, err := ParseTerm(m.Decls(), s, nil)
		if err != nil {
			return fmt.Errorf("function %s default: %w", name, err)
		}
		if !term.Type().Equal(ret) {
			return &CompileError{
				Field:   "function." + name + ".default",
				Message: fmt.Sprintf("default has sort %s, want %s", term.Type(), ret),
				Pos:     d.Pos(),
			}
		}
		opts = append(opts, egraph.WithDefault(term))
	}
	if mv := v.LookupPath(cue.ParsePath("merge")); mv.Exists() {
		s, err := mv.String()
		if err != nil {
			return formatCUEError(err)
		}
		term, err := ParseTerm(m.Decls(), s, mergeVars)
		if err != nil {
			return fmt.Errorf("function %s merge: %w", name, err)
		}
		if !term.Type().Equal(ret) {
			return &CompileError{
				Field:   "function." + name + ".merge",
				Message: fmt.Sprintf("merge has sort %s, want %s", term.Type(), ret),
				Pos:     mv.Pos(),
			}
		}
		opts = append(opts, egraph.WithMerge(term))
	}

	for _, opt := range opts {
		opt(fd)
	}
	if err := m.RegisterCallable(decl.FunctionRef{Name: name}, fd, ""); err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	return nil
}

func compileRelations(m *egraph.Module, v cue.Value) error {
	relVal := v.LookupPath(cue.ParsePath("relation"))
	if !relVal.Exists() {
		return nil
	}
	iter, err := relVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		relName := iter.Label()
		args, err := typeList(m.Decls(), iter.Value())
		if err != nil {
			return fmt.Errorf("relation %s: %w", relName, err)
		}
		argRefs := make([]decl.TypeRef, len(args))
		for i, a := range args {
			argRefs[i] = a
		}
		if err := m.Relation(relName, argRefs...); err != nil {
			return fmt.Errorf("relation %s: %w", relName, err)
		}
	}
	return nil
}

func compileConstants(m *egraph.Module, v cue.Value) error {
	constVal := v.LookupPath(cue.ParsePath("constant"))
	if !constVal.Exists() {
		return nil
	}
	iter, err := constVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		constName := iter.Label()
		sortStr, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		typ, err := parseTypeString(m.Decls(), sortStr)
		if err != nil {
			return fmt.Errorf("constant %s: %w", constName, err)
		}
		if err := m.Constant(constName, typ); err != nil {
			return fmt.Errorf("constant %s: %w", constName, err)
		}
	}
	return nil
}

func compileRulesets(m *egraph.Module, v cue.Value) error {
	rsVal := v.LookupPath(cue.ParsePath("ruleset"))
	if !rsVal.Exists() {
		return nil
	}
	iter, err := rsVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		if err := m.Ruleset(name); err != nil {
			return fmt.Errorf("ruleset %s: %w", name, err)
		}
	}
	return nil
}

func compileRewrites(m *egraph.Module, v cue.Value) error {
	rwVal := v.LookupPath(cue.ParsePath("rewrite"))
	if !rwVal.Exists() {
		return nil
	}
	iter, err := rwVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := compileRewrite(m, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileRewrite(m *egraph.Module, v cue.Value) error {
	vars, err := varTypes(m.Decls(), v.LookupPath(cue.ParsePath("vars")))
	if err != nil {
		return err
	}
	lhsStr, err := requiredString(v, "lhs")
	if err != nil {
		return err
	}
	rhsStr, err := requiredString(v, "rhs")
	if err != nil {
		return err
	}
	lhs, err := ParseTerm(m.Decls(), lhsStr, vars)
	if err != nil {
		return fmt.Errorf("rewrite lhs: %w", err)
	}
	rhs, err := ParseTerm(m.Decls(), rhsStr, vars)
	if err != nil {
		return fmt.Errorf("rewrite rhs: %w", err)
	}

	conditions, err := factList(m.Decls(), v.LookupPath(cue.ParsePath("when")), vars)
	if err != nil {
		return err
	}
	conds := make([]any, len(conditions))
	for i, c := range conditions {
		conds[i] = c
	}

	ruleset, err := optionalString(v, "ruleset")
	if err != nil {
		return err
	}
	if ruleset != "" {
		if err := m.Ruleset(ruleset); err != nil {
			return err
		}
	}

	bidirectional := false
	if b := v.LookupPath(cue.ParsePath("bidirectional")); b.Exists() {
		bidirectional, err = b.Bool()
		if err != nil {
			return formatCUEError(err)
		}
	}

	var cmd decl.Command
	if bidirectional {
		cmd, err = dsl.Birewrite(lhs).InRuleset(ruleset).To(rhs, conds...)
	} else {
		cmd, err = dsl.Rewrite(lhs).InRuleset(ruleset).To(rhs, conds...)
	}
	if err != nil {
		return err
	}
	m.Register(cmd)
	return nil
}

func compileRules(m *egraph.Module, v cue.Value) error {
	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return nil
	}
	iter, err := ruleVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := compileRule(m, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileRule(m *egraph.Module, v cue.Value) error {
	vars, err := varTypes(m.Decls(), v.LookupPath(cue.ParsePath("vars")))
	if err != nil {
		return err
	}

	facts, err := factList(m.Decls(), v.LookupPath(cue.ParsePath("when")), vars)
	if err != nil {
		return err
	}
	when := make([]any, len(facts))
	for i, f := range facts {
		when[i] = f
	}

	builder, err := dsl.Rule(when...)
	if err != nil {
		return err
	}
	if name, err := optionalString(v, "name"); err != nil {
		return err
	} else if name != "" {
		builder = builder.Named(name)
	}
	ruleset, err := optionalString(v, "ruleset")
	if err != nil {
		return err
	}
	if ruleset != "" {
		if err := m.Ruleset(ruleset); err != nil {
			return err
		}
		builder = builder.InRuleset(ruleset)
	}

	declared, err := declaredVars(m, vars, v.LookupPath(cue.ParsePath("declare")))
	if err != nil {
		return err
	}
	if len(declared) > 0 {
		builder = builder.Declare(declared...)
	}

	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return &CompileError{Field: "rule.then", Message: "then is required", Pos: v.Pos()}
	}
	thenIter, err := thenVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	var actions []any
	for thenIter.Next() {
		action, err := compileAction(m, thenIter.Value(), vars)
		if err != nil {
			return err
		}
		actions = append(actions, action)
	}

	cmd, err := builder.Then(actions...)
	if err != nil {
		return err
	}
	m.Register(cmd)
	return nil
}

func compileAction(m *egraph.Module, v cue.Value, vars map[string]decl.JustTypeRef) (dsl.Action, error) {
	if letVal := v.LookupPath(cue.ParsePath("let")); letVal.Exists() {
		name, err := requiredString(letVal, "name")
		if err != nil {
			return dsl.Action{}, err
		}
		termStr, err := requiredString(letVal, "term")
		if err != nil {
			return dsl.Action{}, err
		}
		term, err := ParseTerm(m.Decls(), termStr, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		// Later actions in the same rule may reference the binding.
		vars[name] = term.Type()
		return dsl.Let(name, term), nil
	}
	if setVal := v.LookupPath(cue.ParsePath("set")); setVal.Exists() {
		callStr, err := requiredString(setVal, "call")
		if err != nil {
			return dsl.Action{}, err
		}
		toStr, err := requiredString(setVal, "to")
		if err != nil {
			return dsl.Action{}, err
		}
		call, err := ParseTerm(m.Decls(), callStr, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		to, err := ParseTerm(m.Decls(), toStr, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		return dsl.Set(call, to)
	}
	if unionVal := v.LookupPath(cue.ParsePath("union")); unionVal.Exists() {
		lhsStr, err := requiredString(unionVal, "lhs")
		if err != nil {
			return dsl.Action{}, err
		}
		rhsStr, err := requiredString(unionVal, "rhs")
		if err != nil {
			return dsl.Action{}, err
		}
		lhs, err := ParseTerm(m.Decls(), lhsStr, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		rhs, err := ParseTerm(m.Decls(), rhsStr, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		return dsl.Union(lhs, rhs)
	}
	if delVal := v.LookupPath(cue.ParsePath("delete")); delVal.Exists() {
		s, err := delVal.String()
		if err != nil {
			return dsl.Action{}, formatCUEError(err)
		}
		call, err := ParseTerm(m.Decls(), s, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		return dsl.Delete(call)
	}
	if panicVal := v.LookupPath(cue.ParsePath("panic")); panicVal.Exists() {
		msg, err := panicVal.String()
		if err != nil {
			return dsl.Action{}, formatCUEError(err)
		}
		return dsl.Panic(msg), nil
	}
	if evalVal := v.LookupPath(cue.ParsePath("eval")); evalVal.Exists() {
		s, err := evalVal.String()
		if err != nil {
			return dsl.Action{}, formatCUEError(err)
		}
		term, err := ParseTerm(m.Decls(), s, vars)
		if err != nil {
			return dsl.Action{}, err
		}
		return dsl.Eval(term), nil
	}
	return dsl.Action{}, &CompileError{
		Field:   "rule.then",
		Message: "action must be one of let, set, union, delete, panic, eval",
		Pos:     v.Pos(),
	}
}

func compileLets(m *egraph.Module, v cue.Value) error {
	letVal := v.LookupPath(cue.ParsePath("let"))
	if !letVal.Exists() {
		return nil
	}
	iter, err := letVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		item := iter.Value()
		name, err := requiredString(item, "name")
		if err != nil {
			return err
		}
		termStr, err := requiredString(item, "term")
		if err != nil {
			return err
		}
		term, err := ParseTerm(m.Decls(), termStr, nil)
		if err != nil {
			return fmt.Errorf("let %s: %w", name, err)
		}
		m.Register(decl.ActionCommand{Action: decl.LetAction{Name: name, Expr: term.Decl()}})
	}
	return nil
}

// declaredVars maps explicit declare entries to typed pattern variables.
func declaredVars(m *egraph.Module, vars map[string]decl.JustTypeRef, v cue.Value) ([]expr.Expr, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	b := m.Builder()
	var out []expr.Expr
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		typ, ok := vars[name]
		if !ok {
			return nil, &CompileError{
				Field:   "rule.declare",
				Message: fmt.Sprintf("declared variable %s has no entry in vars", name),
				Pos:     v.Pos(),
			}
		}
		dv, err := b.Var(name, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, dv)
	}
	return out, nil
}

func varTypes(decls *decl.Declarations, v cue.Value) (map[string]decl.JustTypeRef, error) {
	vars := map[string]decl.JustTypeRef{}
	if !v.Exists() {
		return vars, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		sortStr, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		typ, err := parseTypeString(decls, sortStr)
		if err != nil {
			return nil, fmt.Errorf("var %s: %w", name, err)
		}
		vars[name] = typ
	}
	return vars, nil
}

// annotationList reads a list of type strings as unresolved annotations,
// for signature-level resolution.
func annotationList(v cue.Value) ([]resolve.Annotation, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []resolve.Annotation
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ann, err := parseAnnotation(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
	}
	return out, nil
}

func typeList(decls *decl.Declarations, v cue.Value) ([]decl.JustTypeRef, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []decl.JustTypeRef
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		typ, err := parseTypeString(decls, s)
		if err != nil {
			return nil, err
		}
		out = append(out, typ)
	}
	return out, nil
}

func factList(decls *decl.Declarations, v cue.Value, vars map[string]decl.JustTypeRef) ([]dsl.Fact, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []dsl.Fact
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		f, err := ParseFact(decls, s, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func stringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}
