package parser

import "strings"

// Element is an open or closed instance of a recognized tag with accumulated
// content, tracked on the sequencer stack. Its Index is assigned once, at
// first creation, and reused for every subsequent partial update until the
// element closes.
type Element struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes"`
	Content    []string          `json:"content"`
	Done       bool              `json:"done"`
}

// Text concatenates the content fragments in emission order.
func (e Element) Text() string {
	return strings.Join(e.Content, "")
}

// Attribute returns the attribute value for key.
func (e Element) Attribute(key string) (string, bool) {
	v, ok := e.Attributes[key]
	return v, ok
}

// Sequencer converts scanner events into indexed, nested elements and invokes
// a callback per update. It maintains a strict LIFO stack: an end event
// always closes the most recently opened, still-open element.
//
// Guarantee: every element receives at least two callback invocations, one
// at creation and one final snapshot with Done=true, plus any number of
// intermediate not-done invocations as text arrives.
//
// A Sequencer belongs to exactly one parse session and is not safe for
// concurrent use.
type Sequencer struct {
	next    int
	current *Element
	stack   []*Element
	fn      func(Element)
}

// NewSequencer creates a sequencer starting at the given element index.
// The start index is caller-supplied so multiple sessions can share one
// counter without index collisions. fn may be nil.
func NewSequencer(start int, fn func(Element)) *Sequencer {
	return &Sequencer{next: start, fn: fn}
}

// Handle applies a single event to the stack.
func (s *Sequencer) Handle(ev Event) {
	switch e := ev.(type) {
	case StartEvent:
		s.start(e)
	case TextEvent:
		s.text(e)
	case EndEvent:
		s.end()
	}
}

// HandleAll applies events in order.
func (s *Sequencer) HandleAll(events []Event) {
	for _, ev := range events {
		s.Handle(ev)
	}
}

// Next returns the next unassigned element index.
func (s *Sequencer) Next() int { return s.next }

// Depth returns the number of currently open elements.
func (s *Sequencer) Depth() int {
	if s.current == nil {
		return 0
	}
	return len(s.stack) + 1
}

func (s *Sequencer) start(e StartEvent) {
	if s.current != nil {
		s.stack = append(s.stack, s.current)
	}
	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	s.current = &Element{Index: s.next, Tag: e.Name, Attributes: attrs}
	s.next++
	s.notify()
}

func (s *Sequencer) text(e TextEvent) {
	if s.current == nil {
		// Text outside any element is structurally invisible.
		return
	}
	s.current.Content = append(s.current.Content, e.Text)
	s.notify()
}

func (s *Sequencer) end() {
	if s.current == nil {
		return
	}
	s.current.Done = true
	s.notify()
	if n := len(s.stack); n > 0 {
		s.current = s.stack[n-1]
		s.stack = s.stack[:n-1]
	} else {
		s.current = nil
	}
}

// notify hands the callback a snapshot so later fragment appends cannot
// mutate an already-delivered element.
func (s *Sequencer) notify() {
	if s.fn == nil {
		return
	}
	el := *s.current
	el.Content = append([]string(nil), s.current.Content...)
	s.fn(el)
}
