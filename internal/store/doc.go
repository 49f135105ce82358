// Package store provides SQLite-backed storage for compiled modules.
//
// Every compile that is stored becomes a build:
//   - builds: one row per build, keyed by a UUIDv7 build ID
//   - functions: the text form and fingerprint of each function in the build
//   - closure_envs: the module's closure environment table
//
// A build is written in one transaction and never updated. Builds are
// ordered by seq, a logical counter assigned on insert; wall time is not
// recorded, so two stores fed the same compiles with the same ID generator
// hold identical rows.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// Fingerprints are computed by internal/ir (SHA-256 with domain separation)
// and meta binds are stored as canonical JSON.
package store
