// Package core provides the foundational domain types and contracts used by
// TagFlow. It defines the core abstractions for:
//
//   - Records (immutable typed log entries: thoughts, action calls, action
//     results, output refs)
//   - Chain (append-only canonical history for one session)
//   - WorkingMemory (categorized append-only buffers mirroring the Chain)
//   - Sessions (index continuity + history container) and SessionStore
//   - Hooks (synchronous commit-path notifications)
//   - EpisodeStore (pluggable episodic memory backends)
//
// The package intentionally keeps implementation concerns (parsing, dispatch
// orchestration, concrete stores) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
