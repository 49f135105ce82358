// Package queryir is a small query representation over the build store.
//
// Queries name a table, the columns to read and an optional filter. The
// representation is backend-neutral: querysql compiles it to parameterized
// SQLite, and the store runs the result.
//
//	[CLI filters] → [queryir.Select] → [querysql] → [store]
//
// Query and Predicate are sealed: only types in this package implement
// them, so backends can switch over them exhaustively.
//
// Literal values are ir constant terms. Only terms with a deterministic
// column encoding are accepted: ir.Int, ir.Atom and ir.Binary. Floats
// compare inexactly and compound terms have no column form.
package queryir
