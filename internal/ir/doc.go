// Package ir provides the SSA intermediate representation used by eir.
//
// A Function owns a set of arenas (operations, blocks, values, block calls
// and function references) plus a Layout that threads blocks and operations
// into intrusive doubly-linked orderings. Every entity is addressed by a
// small integer handle, never by pointer, so handles stay valid across
// insertion and removal and are trivially comparable.
//
// Key design constraints:
//   - The Layout is the sole owner of ordering. Arenas never expose raw
//     iteration order; walk blocks and ops with Blocks, Ops and OpsReverse.
//   - Removing an op or block only unlinks it. Handles to removed entities
//     must not be dereferenced afterwards (caller contract, not checked).
//   - Variable-length lists (reads, writes, block arguments, block calls)
//     live in shared pools addressed by EntityList handles.
//   - A Value is either an SSA variable or a constant and never changes
//     class after creation.
//   - Phi-like merges are expressed with block arguments: each BlockCall
//     supplies one value per formal argument of its target, positionally.
//
// Misuse of these contracts by a caller is an internal-consistency failure
// (see InternalError), not a user-facing error.
//
// ir imports nothing internal. All other internal packages import ir.
package ir
