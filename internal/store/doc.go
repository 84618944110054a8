// Package store is the persistence layer of the generation engine.
//
// All engine state lives here; nothing in-process survives between
// invocations. The two correctness-critical primitives are:
//   - InsertTaskIfAbsent: atomic insert-if-absent on (series, due date)
//   - SwapRotationIndex: conditional update of a rotation index
//     (compare-and-swap)
//
// Backends: "sqlite" (modernc.org/sqlite, WAL) and "memory" (tests, demos).
package store
