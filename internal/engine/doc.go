// Package engine generates concrete chore instances from recurring
// definitions.
//
// Two producers feed the task table:
//   - series materialization: recurrence rules expanded over a date window,
//     deduped on (series, due date)
//   - rotation scheduling: a per-task ring of members advanced with a
//     compare-and-swap, one incomplete instance at a time
//
// The Orchestrator ties both together per household and records one run log
// per invocation. Everything is safe to re-run for overlapping windows; the
// storage-level dedup key and CAS are the correctness backstop.
package engine
