// Package action implements the action calling subsystem that lets model
// output invoke structured capabilities (APIs, computations, side effects)
// with schema validated arguments and consistent error handling.
package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/internal/util"
)

// Action defines a capability that can be resolved by name from an
// action_call element and executed out-of-band by the dispatcher.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a proper JSON schema for parameters
//   - Handle errors gracefully; failures are captured into the ActionResult,
//     never propagated
//   - Be thread-safe: executions run on background goroutines
type Action interface {
	// Name returns the unique identifier used for registry resolution.
	Name() string

	// Description returns a human-readable description of what this action does.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the action with parsed arguments and an ActionContext
	// giving access to the session's working memory, logging and the run's
	// cancellation signal.
	Call(actx *core.ActionContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ActionError represents errors that occur during action execution.
type ActionError struct {
	Action  string `json:"action"`            // Name of the action that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ActionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("action error [%s] in %s: %s", e.Code, e.Action, e.Message)
	}
	return fmt.Sprintf("action error in %s: %s", e.Action, e.Message)
}

// NewActionError creates a new ActionError with the specified details.
func NewActionError(action, message, code string) *ActionError {
	return &ActionError{Action: action, Message: message, Code: code}
}

// Registry resolves action definitions by name. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds or replaces an action definition.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Name()] = a
}

// Lookup resolves an action by name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
