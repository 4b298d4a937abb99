package decl

import "fmt"

// CallableRef is a sealed interface over the five callable identity kinds.
// Only FunctionRef, MethodRef, ClassMethodRef, ConstantRef, and
// ClassVariableRef implement it.
//
// All variants are comparable structs, so a CallableRef value is usable
// directly as a map key. Identity is the variant plus its fields; the same
// name under different variants (a function "min" and a method "min" on
// some sort) are distinct refs.
type CallableRef interface {
	callableRef()

	// String renders the ref for diagnostics and error messages.
	String() string
}

// FunctionRef identifies a top-level function.
type FunctionRef struct {
	Name string
}

func (FunctionRef) callableRef() {}

func (r FunctionRef) String() string { return r.Name }

// MethodRef identifies an instance method on a sort. The receiver is the
// implicit first argument.
type MethodRef struct {
	Sort string
	Name string
}

func (MethodRef) callableRef() {}

func (r MethodRef) String() string { return fmt.Sprintf("%s.%s", r.Sort, r.Name) }

// ClassMethodRef identifies a method called on the sort itself, including
// constructors (method name "new").
type ClassMethodRef struct {
	Sort string
	Name string
}

func (ClassMethodRef) callableRef() {}

func (r ClassMethodRef) String() string { return fmt.Sprintf("%s.%s", r.Sort, r.Name) }

// ConstantRef identifies a named constant, realized as a zero-argument
// function.
type ConstantRef struct {
	Name string
}

func (ConstantRef) callableRef() {}

func (r ConstantRef) String() string { return r.Name }

// ClassVariableRef identifies a constant scoped to a sort.
type ClassVariableRef struct {
	Sort string
	Name string
}

func (ClassVariableRef) callableRef() {}

func (r ClassVariableRef) String() string { return fmt.Sprintf("%s.%s", r.Sort, r.Name) }
