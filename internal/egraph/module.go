// Package egraph composes declaration modules and drives a live engine
// session over them.
package egraph

import (
	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// Module is a reusable unit of declarations plus the commands that realize
// them, with other modules as dependencies. Modules form a DAG; composition
// flattens the DAG in first-encounter order and replays each module exactly
// once.
type Module struct {
	name  string
	deps  []*Module
	decls *decl.Declarations
	cmds  []decl.Command
}

// NewModule creates a named module depending on zero or more others.
func NewModule(name string, deps ...*Module) *Module {
	return &Module{name: name, deps: deps, decls: decl.New()}
}

// Name returns the module's name.
func (m *Module) Name() string { return m.name }

// Decls returns the module's own registry, excluding dependencies.
func (m *Module) Decls() *decl.Declarations { return m.decls }

// Builder returns an expression builder over the module's registry.
func (m *Module) Builder() *expr.Builder { return expr.NewBuilder(m.decls) }

// Commands returns the module's own recorded commands in declaration order.
func (m *Module) Commands() []decl.Command { return m.cmds }

// Register appends already-built commands, such as rewrites and rules from
// the dsl package, to the module's replay sequence.
func (m *Module) Register(cmds ...decl.Command) {
	m.cmds = append(m.cmds, cmds...)
}

// Sort declares a sort. Pass an empty engineName to reuse the declared name.
func (m *Module) Sort(name string, typeParams int, engineName string) error {
	cmds, err := m.decls.RegisterSort(name, typeParams, engineName)
	if err != nil {
		return err
	}
	m.cmds = append(m.cmds, cmds...)
	return nil
}

// FunctionOption adjusts an optional part of a function declaration.
type FunctionOption func(*decl.FunctionDecl)

// WithCost sets the extraction cost.
func WithCost(cost int64) FunctionOption {
	return func(fd *decl.FunctionDecl) { fd.Cost = &cost }
}

// WithDefault sets the default value asserted for unset calls.
func WithDefault(e expr.Expr) FunctionOption {
	return func(fd *decl.FunctionDecl) { fd.Default = e.Decl() }
}

// WithMerge sets the merge term combining old and new values.
func WithMerge(e expr.Expr) FunctionOption {
	return func(fd *decl.FunctionDecl) { fd.Merge = e.Decl() }
}

// WithMergeActions sets actions fired when two values merge.
func WithMergeActions(actions ...decl.Action) FunctionOption {
	return func(fd *decl.FunctionDecl) { fd.MergeActions = actions }
}

// WithVarArg sets the variadic tail type.
func WithVarArg(t decl.TypeRef) FunctionOption {
	return func(fd *decl.FunctionDecl) { fd.VarArgType = t }
}

// Function declares a top-level function.
func (m *Module) Function(name string, argTypes []decl.TypeRef, ret decl.TypeRef, opts ...FunctionOption) error {
	fd := &decl.FunctionDecl{ReturnType: ret, ArgTypes: argTypes}
	for _, opt := range opts {
		opt(fd)
	}
	return m.RegisterCallable(decl.FunctionRef{Name: name}, fd, "")
}

// Relation declares a function returning Unit, usable as a fact.
func (m *Module) Relation(name string, argSorts ...decl.TypeRef) error {
	return m.Function(name, argSorts, decl.JustTypeRef{Name: decl.SortUnit})
}

// Constant declares a named constant of the given sort.
func (m *Module) Constant(name string, typ decl.JustTypeRef) error {
	cmds, err := m.decls.RegisterConstant(decl.ConstantRef{Name: name}, typ, "")
	if err != nil {
		return err
	}
	m.cmds = append(m.cmds, cmds...)
	return nil
}

// RegisterCallable declares any callable ref. Pass an empty engineName to
// derive one from the ref.
func (m *Module) RegisterCallable(ref decl.CallableRef, fd *decl.FunctionDecl, engineName string) error {
	cmds, err := m.decls.RegisterCallable(ref, fd, engineName)
	if err != nil {
		return err
	}
	m.cmds = append(m.cmds, cmds...)
	return nil
}

// Ruleset declares a named ruleset.
func (m *Module) Ruleset(name string) error {
	cmds, err := m.decls.RegisterRuleset(name)
	if err != nil {
		return err
	}
	m.cmds = append(m.cmds, cmds...)
	return nil
}

// Flatten linearizes the module DAG rooted at the given modules: a module
// reached via multiple paths appears exactly once, at its first encounter,
// with dependencies ahead of their dependents.
func Flatten(mods ...*Module) []*Module {
	var out []*Module
	seen := map[*Module]bool{}
	for _, m := range mods {
		m.flatten(seen, &out)
	}
	return out
}

func (m *Module) flatten(seen map[*Module]bool, out *[]*Module) {
	if seen[m] {
		return
	}
	seen[m] = true
	for _, d := range m.deps {
		d.flatten(seen, out)
	}
	*out = append(*out, m)
}

// Compose merges the flattened modules into one registry and one
// duplicate-free command sequence ready to replay against an engine.
func Compose(mods ...*Module) (*decl.Declarations, []decl.Command, error) {
	merged := decl.New()
	var cmds []decl.Command
	for _, m := range Flatten(mods...) {
		if err := merged.MergeFrom(m.decls); err != nil {
			return nil, nil, err
		}
		cmds = append(cmds, m.cmds...)
	}
	return merged, cmds, nil
}
