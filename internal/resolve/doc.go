// Package resolve maps declared type annotations to type references.
//
// Annotations are an explicit small AST supplied by the caller alongside
// each declaration; there is no runtime introspection. The resolver needs
// the current registry for sort lookups, the enclosing sort's ordered
// type-parameter names, and the enclosing sort itself for self-referential
// generic applications.
package resolve
