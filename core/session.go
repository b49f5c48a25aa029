package core

import (
	"sync"
	"time"
)

// Session is the per-conversation container tracking the canonical Chain, the
// WorkingMemory mirror and the element sequence counter. The sequence counter
// enables element index continuity across multiple runs sharing one session.
//
// Contract:
//   - Chain and WorkingMemory are append-only and written solely through the
//     dispatcher's commit path
//   - Sequence mutations update the Updated timestamp
//   - A session's parser state is never shared across concurrent runs
type Session struct {
	ID       string            `json:"id"`
	Chain    *Chain            `json:"-"`
	Memory   *WorkingMemory    `json:"-"`
	Seq      int               `json:"seq"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:       id,
		Chain:    NewChain(),
		Memory:   NewWorkingMemory(),
		Created:  now,
		Updated:  now,
		Metadata: map[string]string{},
	}
}

// Sequence returns the next unassigned element index for this session.
func (s *Session) Sequence() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Seq
}

// AdvanceSequence records the next unassigned element index after a run.
// Values lower than the current counter are ignored.
func (s *Session) AdvanceSequence(next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next > s.Seq {
		s.Seq = next
		s.Updated = time.Now()
	}
}

// SessionStore persists sessions and their evolving histories.
type SessionStore interface {
	// Get returns the session for id, creating it lazily if absent.
	Get(id string) (*Session, error)
	// Save persists the session snapshot.
	Save(sess *Session) error
}
