package core

import "sync"

// WorkingMemory holds four append-only ordered sequences (thoughts, calls,
// results, outputs) scoped to one session and shared by all dispatch paths.
// It mirrors the Chain for typed access. All getters return defensive copies.
type WorkingMemory struct {
	mu       sync.RWMutex
	thoughts []Thought
	calls    []ActionCall
	results  []ActionResult
	outputs  []OutputRef
}

// NewWorkingMemory creates an empty working memory.
func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{}
}

// AppendThought appends a finalized thought.
func (m *WorkingMemory) AppendThought(t Thought) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thoughts = append(m.thoughts, t)
}

// AppendCall appends a finalized action call.
func (m *WorkingMemory) AppendCall(c ActionCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// AppendResult appends a completed action result.
func (m *WorkingMemory) AppendResult(r ActionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
}

// AppendOutput appends a dispatched output ref.
func (m *WorkingMemory) AppendOutput(o OutputRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, o)
}

// Thoughts returns a copy of the thought sequence.
func (m *WorkingMemory) Thoughts() []Thought {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Thought, len(m.thoughts))
	copy(out, m.thoughts)
	return out
}

// Calls returns a copy of the action call sequence.
func (m *WorkingMemory) Calls() []ActionCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ActionCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Results returns a copy of the action result sequence.
func (m *WorkingMemory) Results() []ActionResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ActionResult, len(m.results))
	copy(out, m.results)
	return out
}

// Outputs returns a copy of the output ref sequence.
func (m *WorkingMemory) Outputs() []OutputRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]OutputRef, len(m.outputs))
	copy(out, m.outputs)
	return out
}

// LastThought returns the most recently committed thought by position.
func (m *WorkingMemory) LastThought() (Thought, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.thoughts) == 0 {
		return Thought{}, false
	}
	return m.thoughts[len(m.thoughts)-1], true
}

// LastCall returns the most recently committed action call by position.
func (m *WorkingMemory) LastCall() (ActionCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return ActionCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}
