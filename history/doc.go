// Package history records completed runs: id, start/end time, finish
// reason, usage totals, and cost. It is deliberately not a checkpoint
// store — no vertex status, edge payload, or in-progress run is ever
// written, only the terminal summary of a run that has already ended
// (spec.md §1's "persistence of intermediate state" Non-goal; SPEC_FULL.md
// §4.10).
//
// The four Recorder implementations mirror the teacher's pluggable
// store/sqlite, store/postgres, store/redis, and store/memory packages,
// each adapted from a checkpoint table keyed by node name to a runs
// table keyed by run id.
package history
