// Package dispatch drives the parse loop: it feeds chunks through the
// scanner and sequencer, keys per-tag handling on each element's done flag,
// and owns the commit path that appends finalized records to the session's
// Chain and WorkingMemory exactly once.
//
// Action execution and episode capture are detached from the parse loop as
// tracked background work: a slow handler cannot stall parsing, results
// re-enter the same commit path upon completion, and Wait exposes full
// completion to the embedding system (e.g. for shutdown).
package dispatch
