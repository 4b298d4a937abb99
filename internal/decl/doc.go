// Package decl provides the canonical declaration model for egglog-go.
//
// This package contains the registry and type definitions only. All other
// internal packages import decl; decl imports nothing internal. This keeps
// the declaration model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Declarations are append-only: sorts and callables are never retracted,
//     only runtime facts are (via Delete actions)
//   - Every type reference that crosses the engine boundary is a fully
//     resolved JustTypeRef; ClassTypeVarRef never escapes this process
//   - CallDecl identity is structural: two calls are equal iff their
//     callable refs and argument trees are equal, recursively
package decl
