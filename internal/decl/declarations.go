package decl

// SortDecl describes a registered sort. Immutable once registered.
type SortDecl struct {
	Name string

	// TypeParams is the number of generic type parameters.
	TypeParams int

	// EngineName is the engine-facing name. Defaults to Name.
	EngineName string
}

// constantCost biases extraction away from constant refs so that extracted
// terms prefer the constant's expanded definition.
const constantCost int64 = 1_000_000_000

// Declarations is the append-only registry of sorts, callables, and
// rulesets for one scope.
//
// Registration calls are pure with respect to the engine: they return the
// commands needed to realize the declaration and never talk to a transport
// themselves. The zero value is not usable; construct with New, which
// pre-registers the builtin declarations.
//
// Declarations assumes a single owner. Concurrent registration is
// unsupported; callers serialize access externally if they need it.
type Declarations struct {
	sorts             map[string]SortDecl
	sortsByEngineName map[string]string
	callables         map[CallableRef]*FunctionDecl
	engineNames       map[CallableRef]string
	refsByEngineName  map[string]CallableRef
	rulesets          map[string]bool
}

// New creates a registry with the builtin sorts and callables
// pre-registered. The commands that would realize the builtins are
// discarded; the engine knows them natively.
func New() *Declarations {
	d := empty()
	registerBuiltins(d)
	return d
}

func empty() *Declarations {
	return &Declarations{
		sorts:             map[string]SortDecl{},
		sortsByEngineName: map[string]string{},
		callables:         map[CallableRef]*FunctionDecl{},
		engineNames:       map[CallableRef]string{},
		refsByEngineName:  map[string]CallableRef{},
		rulesets:          map[string]bool{},
	}
}

// RegisterSort registers a sort, returning the commands that realize it.
// Registering an identical sort again is a no-op with no commands;
// registering the same name with a different arity or engine name is a
// conflict. Engine-facing names must be unique across sorts.
func (d *Declarations) RegisterSort(name string, typeParams int, engineName string) ([]Command, error) {
	if engineName == "" {
		engineName = name
	}
	if existing, ok := d.sorts[name]; ok {
		if existing.TypeParams != typeParams || existing.EngineName != engineName {
			return nil, &Error{
				Code:    ErrCodeDeclarationConflict,
				Message: "sort already registered with a different declaration",
				Ref:     name,
			}
		}
		return nil, nil
	}
	if owner, ok := d.sortsByEngineName[engineName]; ok && owner != name {
		return nil, &Error{
			Code:    ErrCodeDeclarationConflict,
			Message: "engine sort name already used by " + owner,
			Ref:     name,
		}
	}
	d.sorts[name] = SortDecl{Name: name, TypeParams: typeParams, EngineName: engineName}
	d.sortsByEngineName[engineName] = name
	return []Command{SortCommand{Name: engineName, Arity: typeParams}}, nil
}

// Sort looks up a registered sort.
func (d *Declarations) Sort(name string) (SortDecl, error) {
	s, ok := d.sorts[name]
	if !ok {
		return SortDecl{}, &Error{Code: ErrCodeNotFound, Message: "sort is not registered", Ref: name}
	}
	return s, nil
}

// HasSort reports whether a sort is registered.
func (d *Declarations) HasSort(name string) bool {
	_, ok := d.sorts[name]
	return ok
}

// RegisterCallable registers a callable under ref, returning the commands
// that realize it. Re-registering an identical declaration is a no-op with
// no commands; a different declaration is a conflict. Engine-facing names
// must be unique across refs.
//
// Declarations whose signatures still contain type variables are registered
// locally but produce no commands; the engine only ever sees concrete
// instantiations.
func (d *Declarations) RegisterCallable(ref CallableRef, fd *FunctionDecl, engineName string) ([]Command, error) {
	return d.registerCallable(ref, fd, engineName, false)
}

// RegisterConstant registers a named constant or class variable as a
// zero-argument callable with a high extraction cost.
func (d *Declarations) RegisterConstant(ref CallableRef, typ JustTypeRef, engineName string) ([]Command, error) {
	cost := constantCost
	fd := &FunctionDecl{ReturnType: typ, Cost: &cost}
	return d.registerCallable(ref, fd, engineName, false)
}

func (d *Declarations) registerCallable(ref CallableRef, fd *FunctionDecl, engineName string, sharedEngineName bool) ([]Command, error) {
	if engineName == "" {
		engineName = DefaultEngineName(ref)
	}
	if existing, ok := d.callables[ref]; ok {
		if existing.Equal(fd) && d.engineNames[ref] == engineName {
			return nil, nil
		}
		return nil, &Error{
			Code:    ErrCodeDeclarationConflict,
			Message: "callable already registered with a different declaration",
			Ref:     ref.String(),
		}
	}
	if err := d.validateSignature(ref, fd); err != nil {
		return nil, err
	}
	if owner, taken := d.refsByEngineName[engineName]; taken && !sharedEngineName {
		return nil, &Error{
			Code:    ErrCodeDeclarationConflict,
			Message: "engine name " + engineName + " already used by " + owner.String(),
			Ref:     ref.String(),
		}
	} else if !taken {
		d.refsByEngineName[engineName] = ref
	}
	d.callables[ref] = fd
	d.engineNames[ref] = engineName

	if fd.HasTypeVars() {
		return nil, nil
	}
	cmd := FunctionCommand{
		Name:         engineName,
		Cost:         fd.Cost,
		Default:      fd.Default,
		Merge:        fd.Merge,
		MergeActions: fd.MergeActions,
	}
	ret, err := Resolve(fd.ReturnType)
	if err != nil {
		return nil, err
	}
	cmd.ReturnType = ret
	for _, at := range fd.ArgTypes {
		just, err := Resolve(at)
		if err != nil {
			return nil, err
		}
		cmd.ArgTypes = append(cmd.ArgTypes, just)
	}
	return []Command{cmd}, nil
}

// Lookup returns the declaration registered under ref. The returned value
// is shared and must be treated as immutable.
func (d *Declarations) Lookup(ref CallableRef) (*FunctionDecl, error) {
	fd, ok := d.callables[ref]
	if !ok {
		return nil, &Error{Code: ErrCodeNotFound, Message: "callable is not registered", Ref: ref.String()}
	}
	return fd, nil
}

// EngineName returns the engine-facing name for a registered callable.
func (d *Declarations) EngineName(ref CallableRef) (string, error) {
	name, ok := d.engineNames[ref]
	if !ok {
		return "", &Error{Code: ErrCodeNotFound, Message: "callable is not registered", Ref: ref.String()}
	}
	return name, nil
}

// RefForEngineName returns the callable registered under an engine-facing
// name. Used when parsing terms back out of engine replies.
func (d *Declarations) RefForEngineName(name string) (CallableRef, bool) {
	ref, ok := d.refsByEngineName[name]
	return ref, ok
}

// EngineSortName returns the engine-facing name of a sort.
func (d *Declarations) EngineSortName(name string) (string, error) {
	s, err := d.Sort(name)
	if err != nil {
		return "", err
	}
	return s.EngineName, nil
}

// SortForEngineName maps an engine-facing sort name back to the declared
// sort name.
func (d *Declarations) SortForEngineName(engineName string) (string, bool) {
	name, ok := d.sortsByEngineName[engineName]
	return name, ok
}

// RegisterRuleset registers a named ruleset. Re-registration is a no-op.
// The empty name is the global bucket and needs no declaration.
func (d *Declarations) RegisterRuleset(name string) ([]Command, error) {
	if name == "" || d.rulesets[name] {
		return nil, nil
	}
	d.rulesets[name] = true
	return []Command{RulesetCommand{Name: name}}, nil
}

// HasRuleset reports whether a ruleset is registered. The empty (global)
// ruleset always exists.
func (d *Declarations) HasRuleset(name string) bool {
	return name == "" || d.rulesets[name]
}

// Clone deep-copies the registry maps for a push snapshot. FunctionDecl
// values are shared: the registry is append-only and declarations are
// immutable after registration.
func (d *Declarations) Clone() *Declarations {
	c := empty()
	for k, v := range d.sorts {
		c.sorts[k] = v
	}
	for k, v := range d.sortsByEngineName {
		c.sortsByEngineName[k] = v
	}
	for k, v := range d.callables {
		c.callables[k] = v
	}
	for k, v := range d.engineNames {
		c.engineNames[k] = v
	}
	for k, v := range d.refsByEngineName {
		c.refsByEngineName[k] = v
	}
	for k, v := range d.rulesets {
		c.rulesets[k] = v
	}
	return c
}

// MergeFrom folds another registry into this one. Entries already present
// must match exactly; a mismatch is a declaration conflict. Merging is
// order-independent: no commands are produced, callers replay the source's
// recorded commands separately.
func (d *Declarations) MergeFrom(src *Declarations) error {
	for name, s := range src.sorts {
		if existing, ok := d.sorts[name]; ok {
			if existing != s {
				return &Error{
					Code:    ErrCodeDeclarationConflict,
					Message: "sort already registered with a different declaration",
					Ref:     name,
				}
			}
			continue
		}
		if owner, ok := d.sortsByEngineName[s.EngineName]; ok && owner != name {
			return &Error{
				Code:    ErrCodeDeclarationConflict,
				Message: "engine sort name already used by " + owner,
				Ref:     name,
			}
		}
		d.sorts[name] = s
		d.sortsByEngineName[s.EngineName] = name
	}
	for ref, fd := range src.callables {
		engineName := src.engineNames[ref]
		if existing, ok := d.callables[ref]; ok {
			if !existing.Equal(fd) || d.engineNames[ref] != engineName {
				return &Error{
					Code:    ErrCodeDeclarationConflict,
					Message: "callable already registered with a different declaration",
					Ref:     ref.String(),
				}
			}
			continue
		}
		if owner, taken := d.refsByEngineName[engineName]; taken && owner != ref && !sharesEngineName(owner, ref) {
			return &Error{
				Code:    ErrCodeDeclarationConflict,
				Message: "engine name " + engineName + " already used by " + owner.String(),
				Ref:     ref.String(),
			}
		} else if !taken {
			d.refsByEngineName[engineName] = ref
		}
		d.callables[ref] = fd
		d.engineNames[ref] = engineName
	}
	for name := range src.rulesets {
		d.rulesets[name] = true
	}
	return nil
}

// sharesEngineName reports whether two distinct refs may legitimately share
// one engine-facing name. Methods of the same name on different sorts do:
// the polymorphic builtins register that way.
func sharesEngineName(a, b CallableRef) bool {
	ma, ok := a.(MethodRef)
	if !ok {
		return false
	}
	mb, ok := b.(MethodRef)
	return ok && ma.Name == mb.Name
}

// DefaultEngineName derives the engine-facing name for a ref when the
// caller does not supply one. Sort-scoped refs mangle the sort into the
// name so distinct sorts' methods do not collide.
func DefaultEngineName(ref CallableRef) string {
	switch r := ref.(type) {
	case FunctionRef:
		return r.Name
	case ConstantRef:
		return r.Name
	case MethodRef:
		return r.Sort + "_" + r.Name
	case ClassMethodRef:
		return r.Sort + "_" + r.Name
	case ClassVariableRef:
		return r.Sort + "_" + r.Name
	default:
		return ref.String()
	}
}

// validateSignature checks every named type in the signature against the
// registered sorts: names must exist and argument counts must match the
// sort's declared type-parameter count. Type-variable indices must be in
// range for the enclosing sort.
func (d *Declarations) validateSignature(ref CallableRef, fd *FunctionDecl) error {
	maxVar := -1
	switch r := ref.(type) {
	case MethodRef:
		s, err := d.Sort(r.Sort)
		if err != nil {
			return err
		}
		maxVar = s.TypeParams - 1
	case ClassMethodRef:
		s, err := d.Sort(r.Sort)
		if err != nil {
			return err
		}
		maxVar = s.TypeParams - 1
	case ClassVariableRef:
		if _, err := d.Sort(r.Sort); err != nil {
			return err
		}
	}

	refs := append([]TypeRef{fd.ReturnType, fd.VarArgType}, fd.ArgTypes...)
	for _, r := range refs {
		if r == nil {
			continue
		}
		if err := d.validateTypeRef(r, maxVar); err != nil {
			return err
		}
	}
	return nil
}

func (d *Declarations) validateTypeRef(r TypeRef, maxVar int) error {
	switch t := r.(type) {
	case ClassTypeVarRef:
		if t.Index < 0 || t.Index > maxVar {
			return Errorf(ErrCodeUnresolvedTypeVar,
				"type variable %s is out of range for the enclosing sort", t)
		}
		return nil
	case JustTypeRef:
		return d.validateNamed(t.Name, len(t.Args), func(i int) TypeRef { return t.Args[i] }, maxVar)
	case TypeRefWithVars:
		return d.validateNamed(t.Name, len(t.Args), func(i int) TypeRef { return t.Args[i] }, maxVar)
	default:
		return Errorf(ErrCodeUnsupportedAnnotation, "unknown type ref %T", r)
	}
}

func (d *Declarations) validateNamed(name string, n int, arg func(int) TypeRef, maxVar int) error {
	s, err := d.Sort(name)
	if err != nil {
		return err
	}
	if s.TypeParams != n {
		return Errorf(ErrCodeDeclarationConflict,
			"sort %s takes %d type parameters, got %d", name, s.TypeParams, n)
	}
	for i := 0; i < n; i++ {
		if err := d.validateTypeRef(arg(i), maxVar); err != nil {
			return err
		}
	}
	return nil
}
