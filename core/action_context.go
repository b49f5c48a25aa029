package core

import (
	"context"

	"github.com/hupe1980/tagflow/logging"
)

// ActionContext provides a constrained, auditable surface for action handler
// implementations invoked by the dispatcher. Handlers get read access to the
// session's working memory plus the cancellation signal of the run; they never
// touch the Chain directly, their result re-enters the commit path.
type ActionContext struct {
	ctx       context.Context
	sessionID string
	runID     string
	callID    string
	action    string
	memory    *WorkingMemory

	*loggerAdapter
}

// NewActionContext constructs an action context bound to one call id.
func NewActionContext(
	ctx context.Context,
	sessionID, runID, callID, action string,
	memory *WorkingMemory,
	logger logging.Logger,
) *ActionContext {
	return &ActionContext{
		ctx:           ctx,
		sessionID:     sessionID,
		runID:         runID,
		callID:        callID,
		action:        action,
		memory:        memory,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Context returns the cancellation context of the owning run.
func (ac *ActionContext) Context() context.Context { return ac.ctx }

// SessionID returns the session ID associated with the invocation.
func (ac *ActionContext) SessionID() string { return ac.sessionID }

// RunID returns the run ID associated with the invocation.
func (ac *ActionContext) RunID() string { return ac.runID }

// CallID returns the originating action call ID.
func (ac *ActionContext) CallID() string { return ac.callID }

// ActionName returns the resolved action name.
func (ac *ActionContext) ActionName() string { return ac.action }

// Memory returns the session's working memory for read access.
func (ac *ActionContext) Memory() *WorkingMemory { return ac.memory }

// OutputContext carries the originating element's context into output
// handlers. Every ref the handler yields is attributed to it.
type OutputContext struct {
	ctx        context.Context
	sessionID  string
	runID      string
	outputType string
	attributes map[string]string
	memory     *WorkingMemory

	*loggerAdapter
}

// NewOutputContext constructs an output context for one output element.
func NewOutputContext(
	ctx context.Context,
	sessionID, runID, outputType string,
	attributes map[string]string,
	memory *WorkingMemory,
	logger logging.Logger,
) *OutputContext {
	return &OutputContext{
		ctx:           ctx,
		sessionID:     sessionID,
		runID:         runID,
		outputType:    outputType,
		attributes:    attributes,
		memory:        memory,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Context returns the cancellation context of the owning run.
func (oc *OutputContext) Context() context.Context { return oc.ctx }

// SessionID returns the session ID associated with the dispatch.
func (oc *OutputContext) SessionID() string { return oc.sessionID }

// RunID returns the run ID associated with the dispatch.
func (oc *OutputContext) RunID() string { return oc.runID }

// OutputType returns the declared output type.
func (oc *OutputContext) OutputType() string { return oc.outputType }

// Attribute returns the originating element attribute for key.
func (oc *OutputContext) Attribute(key string) (string, bool) {
	v, ok := oc.attributes[key]
	return v, ok
}

// Memory returns the session's working memory for read access.
func (oc *OutputContext) Memory() *WorkingMemory { return oc.memory }
