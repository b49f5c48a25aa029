// Package runner is the orchestration layer tying stream sources to the
// dispatch pipeline.
//
// A Runner owns the per-run lifecycle: it loads the session, seeds the
// element sequence from the persisted counter, pumps model chunks through a
// dispatcher, waits for detached work, advances the sequence, and saves the
// session. Runs are asynchronous and individually cancellable by run ID.
package runner
