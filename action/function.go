package action

import (
	"fmt"
	"time"

	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/internal/util"
)

// FunctionAction is a generic adapter that exposes a plain Go function as a
// TagFlow action.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates supplied arguments against that schema before execution
//   - Invokes the wrapped function with a *core.ActionContext giving access
//     to working memory, logging and the call id
//   - Normalizes error handling so callers receive *ActionError with
//     consistent codes:
//     VALIDATION_ERROR -> schema / argument mismatch
//     EXECUTION_ERROR  -> underlying function returned an error
//     (custom codes preserved if the function returns *ActionError directly)
//
// A FunctionAction has no internal mutable state after construction and is
// safe for concurrent use by multiple goroutines.
type FunctionAction struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(actx *core.ActionContext, args map[string]any) (any, error)
}

// NewFunctionAction constructs a FunctionAction from explicit schema and function.
//
// Example:
//
//	weather := NewFunctionAction(
//	  "get_weather",
//	  "Look up current weather for a city",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "city": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"city"},
//	  },
//	  func(actx *core.ActionContext, args map[string]any) (any, error) {
//	    return lookup(args["city"].(string))
//	  },
//	)
func NewFunctionAction(
	name, description string,
	parameters map[string]any,
	fn func(actx *core.ActionContext, args map[string]any) (any, error),
) *FunctionAction {
	return &FunctionAction{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionActionFromStruct derives the parameter schema from a struct
// using reflection. It is a convenience for simple argument containers and
// produces a schema equivalent to util.CreateSchema(structType).
func NewFunctionActionFromStruct(
	name, description string,
	structType any,
	fn func(actx *core.ActionContext, args map[string]any) (any, error),
) *FunctionAction {
	return NewFunctionAction(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique action name used in action_call resolution.
func (a *FunctionAction) Name() string { return a.name }

// Description returns the short natural language description of the action.
func (a *FunctionAction) Description() string { return a.description }

// Parameters returns the (minimal) JSON schema describing expected arguments.
func (a *FunctionAction) Parameters() map[string]any { return a.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *ActionError for uniform downstream handling.
func (a *FunctionAction) Call(actx *core.ActionContext, args map[string]any) (any, error) {
	logger := actx.Logger()
	start := time.Now()

	logger.Debug("action.call.start", "action", a.name, "call_id", actx.CallID())

	if err := util.ValidateParameters(args, a.parameters); err != nil {
		logger.Warn("action.call.validation_failed", "action", a.name, "error", err.Error())

		return nil, &ActionError{
			Action:  a.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := a.fn(actx, args)
	if err != nil {
		if actionErr, ok := err.(*ActionError); ok {
			logger.Error("action.call.error", "action", a.name, "error", actionErr.Message)

			return nil, actionErr
		}

		logger.Error("action.call.error", "action", a.name, "error", err.Error())

		return nil, &ActionError{
			Action:  a.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	logger.Info("action.call.success", "action", a.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
