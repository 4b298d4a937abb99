// Package expr constructs typed term trees over a declaration registry.
//
// Every construction validates operand types against the callable's
// resolved declaration before emitting a call node, so an Expr that exists
// is well typed. Raw Go literals lift to literal nodes typed by their
// builtin sort. Relation-producing operations (Ne and friends) yield
// symbolic terms usable only inside facts and conditions; they have no
// host truth value and nothing here converts them to a Go bool.
package expr
