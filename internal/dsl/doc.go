// Package dsl builds declarative commands - rewrites, rules, facts,
// actions, and schedules - from typed expressions.
//
// Builders validate at build time: facts require same-sort operands,
// Set and Delete require call expressions, and every variable used on the
// right-hand side of a rewrite or in a rule's actions must be bound by an
// earlier fact, a let, or an explicit declaration.
package dsl
