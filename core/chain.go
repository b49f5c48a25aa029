package core

import "sync"

// Chain is the append-only ordered log of all finalized records for one
// session, used as canonical history. Records enter the chain exactly once,
// through the commit path, at the moment they become final. It is safe for
// single-writer/multi-reader access.
type Chain struct {
	mu      sync.RWMutex
	records []Record
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Append adds a finalized record to the end of the chain.
func (c *Chain) Append(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Records returns a defensive copy of the full record sequence.
func (c *Chain) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of committed records.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
