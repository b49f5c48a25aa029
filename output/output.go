// Package output implements the output dispatch subsystem: typed handlers
// that validate and deliver the payloads of finalized output elements.
package output

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/internal/util"
)

// Handler delivers the payload of an output element with a matching type
// attribute. A handler may yield zero, one or many data payloads; the
// dispatcher wraps each into an individually timestamped core.OutputRef
// attributed to the originating element.
//
// Failures are returned as errors and surface as a single error-flagged ref;
// they never abort the parse loop.
type Handler interface {
	// Type returns the output type this handler serves.
	Type() string

	// Description returns a human-readable description of the handler.
	Description() string

	// Schema returns a JSON schema describing the expected payload shape.
	// The dispatcher validates the parsed payload against it before Handle.
	Schema() map[string]any

	// Handle delivers the validated payload and returns the data for the
	// resulting refs.
	Handle(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error)
}

// ValidationError represents payload validation errors with detailed information.
type ValidationError = util.ValidationError

// HandlerError represents errors that occur during output dispatch.
type HandlerError struct {
	Type    string `json:"type"`    // Output type that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *HandlerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("output error [%s] for type %s: %s", e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("output error for type %s: %s", e.Type, e.Message)
}

// NewHandlerError creates a new HandlerError with the specified details.
func NewHandlerError(outputType, message, code string) *HandlerError {
	return &HandlerError{Type: outputType, Message: message, Code: code}
}

// Registry resolves output handlers by type. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces an output handler.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Type()] = h
}

// Lookup resolves a handler by output type.
func (r *Registry) Lookup(outputType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[outputType]
	return h, ok
}

// Types returns the registered output types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
