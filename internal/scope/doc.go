// Package scope resolves source-level names to SSA variables while a
// function body is lowered, and synthesizes closure captures.
//
// The Tracker keeps a stack of frames. Binding frames map names to the
// variables that currently denote them. Tracking frames mark closure-body
// boundaries: they bind nothing, but every lookup that crosses one is
// renamed to a fresh inner variable, recorded once per name. Popping a
// tracking frame yields the closure's capture list in first-use order.
//
// Capture therefore happens as a side effect of lookup. There is no
// separate free-variable pass that could disagree with what the lowering
// actually read.
//
// Misuse (mismatched pops, names with no binding, re-registering an
// environment) is raised with ir.Fatalf and aborts the compilation unit.
package scope
