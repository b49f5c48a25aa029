package core

import "time"

// Record represents a polymorphic finalized log entry. Concrete record types
// implement the unexported isRecord marker enabling a closed set.
type Record interface{ isRecord() }

// Thought is a finalized reasoning fragment emitted by the model.
type Thought struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Processed bool      `json:"processed"`
}

// isRecord implements the Record interface for Thought.
func (Thought) isRecord() {}

// ActionCall is a request to execute a named action with a raw argument payload.
type ActionCall struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Processed bool      `json:"processed"`
}

// isRecord implements the Record interface for ActionCall.
func (ActionCall) isRecord() {}

// ActionResult captures the outcome of an ActionCall. Failed executions carry
// the serialized failure under the "error" key of Data instead of aborting
// the dispatcher.
type ActionResult struct {
	ID        string         `json:"id"`
	CallID    string         `json:"call_id"` // Matches the originating ActionCall ID
	Name      string         `json:"name"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Processed bool           `json:"processed"`
}

// isRecord implements the Record interface for ActionResult.
func (ActionResult) isRecord() {}

// Err returns the serialized failure carried by the result, if any.
func (r ActionResult) Err() (string, bool) {
	if r.Data == nil {
		return "", false
	}
	msg, ok := r.Data["error"].(string)
	return msg, ok
}

// OutputRef is a structured reference produced by an output handler.
type OutputRef struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Processed bool           `json:"processed"`
}

// isRecord implements the Record interface for OutputRef.
func (OutputRef) isRecord() {}

// NewThought creates a Thought with a fresh ID and UTC timestamp.
func NewThought(content string) Thought {
	return Thought{ID: NewID(), Timestamp: time.Now().UTC(), Content: content}
}

// NewActionCall creates an ActionCall with a fresh ID and UTC timestamp.
func NewActionCall(name, content string) ActionCall {
	return ActionCall{ID: NewID(), Timestamp: time.Now().UTC(), Name: name, Content: content}
}

// NewActionResult creates an ActionResult bound to the originating call.
func NewActionResult(callID, name string, data map[string]any) ActionResult {
	return ActionResult{ID: NewID(), CallID: callID, Name: name, Data: data, Timestamp: time.Now().UTC()}
}

// NewErrorResult creates an ActionResult carrying a serialized failure.
func NewErrorResult(callID, name string, err error) ActionResult {
	return NewActionResult(callID, name, map[string]any{"error": err.Error()})
}

// NewOutputRef creates an OutputRef with a fresh ID and UTC timestamp.
func NewOutputRef(outputType string, data map[string]any) OutputRef {
	return OutputRef{ID: NewID(), Type: outputType, Data: data, Timestamp: time.Now().UTC()}
}
