package parser

// Event represents a polymorphic structural event emitted by the Scanner.
// Concrete event types implement the unexported isEvent marker enabling a
// closed set.
type Event interface{ isEvent() }

// StartEvent marks the opening of a recognized tag.
type StartEvent struct {
	Name       string            // Recognized tag name
	Attributes map[string]string // Parsed attribute pairs (never nil)
}

// isEvent implements the Event interface for StartEvent.
func (StartEvent) isEvent() {}

// TextEvent carries a content fragment. Fragment boundaries follow chunk
// boundaries and are not significant; consumers concatenate in order.
type TextEvent struct {
	Text string
}

// isEvent implements the Event interface for TextEvent.
func (TextEvent) isEvent() {}

// EndEvent marks the closing of a recognized tag. The sequencer closes the
// most recently opened element regardless of Name; the field exists for
// diagnostics only.
type EndEvent struct {
	Name string
}

// isEvent implements the Event interface for EndEvent.
func (EndEvent) isEvent() {}
