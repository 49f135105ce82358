// Package hir defines the lowered source tree handed to eir by the parser
// layer.
//
// Pattern matching has already been compiled away: every binding site names
// its variables explicitly and branching is a two-way If. The tree is small
// on purpose. It carries exactly the constructs that exercise scoping and
// closure capture: let bindings, anonymous functions, recursive function
// groups, calls and branches.
//
// Expr is a sealed interface. Only the node types in this package implement
// it.
package hir
