// Package episodic contains concrete EpisodeStore implementations. The store
// interface and Episode type reside in the core package. Import
// github.com/hupe1980/tagflow/core and depend on core.EpisodeStore in your
// code; select an implementation (like the in-memory store below) at wiring
// time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (vector databases, graph stores, embeddings indexes) to be added
// without introducing dependency cycles.
package episodic
