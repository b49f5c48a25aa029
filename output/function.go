package output

import (
	"github.com/hupe1980/tagflow/core"
)

// FunctionHandler adapts a plain Go function into an output Handler.
// It has no internal mutable state after construction and is safe for
// concurrent use.
type FunctionHandler struct {
	outputType  string
	description string
	schema      map[string]any
	fn          func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error)
}

// NewFunctionHandler constructs a FunctionHandler from explicit schema and function.
//
// Example:
//
//	response := NewFunctionHandler(
//	  "response",
//	  "Deliver the final user-facing response",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "text": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"text"},
//	  },
//	  func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
//	    deliver(payload["text"].(string))
//	    return []map[string]any{payload}, nil
//	  },
//	)
func NewFunctionHandler(
	outputType, description string,
	schema map[string]any,
	fn func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error),
) *FunctionHandler {
	return &FunctionHandler{
		outputType:  outputType,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

// Type returns the output type this handler serves.
func (h *FunctionHandler) Type() string { return h.outputType }

// Description returns the handler description.
func (h *FunctionHandler) Description() string { return h.description }

// Schema returns the declared payload schema.
func (h *FunctionHandler) Schema() map[string]any { return h.schema }

// Handle invokes the wrapped function.
func (h *FunctionHandler) Handle(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
	return h.fn(octx, payload)
}
