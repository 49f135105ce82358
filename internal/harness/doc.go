// Package harness runs scripted scope scenarios against scope.Tracker.
//
// A scenario drives the tracker the way a lowering would: push and pop
// frames, resolve names, allocate and register closure environments. Each
// step may carry expectations; the run produces a trace that is compared
// against golden files.
//
// # Scenario Format
//
//	name: capture_idempotence
//	description: "Two lookups across one boundary share one capture"
//	steps:
//	  - op: push_binding
//	    bind: { X: x }
//	  - op: push_tracking
//	  - op: resolve
//	    name: X
//	    expect: inner
//	  - op: pop_tracking
//	    captures:
//	      - { name: X, outer: x, inner: inner }
//	  - op: pop_binding
//	assertions:
//	  - type: final_depth
//	    count: 0
//
// Variables are written as labels. A label is bound to a variable the first
// time it appears, and must denote the same variable everywhere after that.
// Names containing a slash (loop/1) denote functions of the scenario's
// module; every other name is a variable.
//
// A step with fatal: CODE expects the tracker to raise that internal error
// code. An unexpected internal error aborts the scenario.
//
// # Assertion Types
//
//   - trace_count: the op appears exactly count times in the trace
//   - final_depth: the scope stack holds count frames at the end
//   - env_captures: the finished table gives env count captures
//
// # Deterministic Testing
//
// Variables come from a fresh generator and trace sequence numbers from
// testutil.DeterministicClock, so traces are identical across runs.
package harness
