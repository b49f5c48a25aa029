package dispatch

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/parser"
)

// handleActionCall materializes the call across partial updates and, on done,
// commits it immediately so positional ordering survives asynchronous
// execution, then detaches the execution itself.
func (d *Dispatcher) handleActionCall(el parser.Element) {
	name, ok := el.Attribute("name")
	if !ok || name == "" {
		if el.Done {
			// Required attribute missing: dropped, non-fatal.
			d.logger.Error("dispatch.action_call.missing_name",
				"session_id", d.sessionID, "index", el.Index)
		}
		return
	}

	d.mu.Lock()

	call, known := d.pendingCalls[el.Index]
	if !known {
		call = core.NewActionCall(name, "")
	}
	call.Content = trimmedText(el)

	if !el.Done {
		d.pendingCalls[el.Index] = call
		d.hooks.EmitLogStream(call, false)
		d.mu.Unlock()
		return
	}

	delete(d.pendingCalls, el.Index)
	d.chain.Append(call)
	d.memory.AppendCall(call)
	d.hooks.EmitLogStream(call, true)
	d.mu.Unlock()

	d.logger.Debug("dispatch.action_call.committed",
		"session_id", d.sessionID, "call_id", call.ID, "action", name)

	// Cancellation is checked before starting any new execution; a call that
	// arrives after the signal produces no result at all.
	if d.ctx.Err() != nil {
		d.logger.Debug("dispatch.action_call.skipped",
			"session_id", d.sessionID, "call_id", call.ID, "action", name)
		return
	}

	def, found := d.actions.Lookup(name)
	if !found {
		// Unknown action is not fatal: the call persists and an
		// error-carrying result enters the commit path.
		d.logger.Warn("dispatch.action_call.unknown_action",
			"session_id", d.sessionID, "call_id", call.ID, "action", name)
		d.commitResult(core.NewErrorResult(call.ID, name, fmt.Errorf("action %q not found", name)))
		return
	}

	d.pending.Add(1)
	go d.execute(def, call)
}

// execute runs one action in a detached goroutine. It always produces exactly
// one result, success or captured failure, unless cancellation was already
// signaled before execution started.
func (d *Dispatcher) execute(def action.Action, call core.ActionCall) {
	defer d.pending.Done()

	if d.ctx.Err() != nil {
		d.logger.Debug("dispatch.action.skipped",
			"session_id", d.sessionID, "call_id", call.ID, "action", call.Name)
		return
	}

	actx := core.NewActionContext(d.ctx, d.sessionID, d.runID, call.ID, call.Name, d.memory, d.logger)
	args := parseArgs(call.Content)

	start := time.Now()

	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("action panic: %v", r)
				d.logger.Error("dispatch.action.panic",
					"action", call.Name, "call_id", call.ID, "recover", r,
					"stack", string(debug.Stack()))
			}
		}()
		result, err = def.Call(actx, args)
	}()

	d.logger.Info("dispatch.action.executed",
		"session_id", d.sessionID,
		"action", call.Name,
		"call_id", call.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		d.commitResult(core.NewErrorResult(call.ID, call.Name, err))
		return
	}
	d.commitResult(core.NewActionResult(call.ID, call.Name, resultData(result)))
}

// commitResult appends a completed result through the shared commit path.
// Results commit in completion order: a later-started, faster action may land
// before an earlier, slower one.
func (d *Dispatcher) commitResult(res core.ActionResult) {
	d.mu.Lock()
	d.chain.Append(res)
	d.memory.AppendResult(res)
	d.hooks.EmitLogStream(res, true)
	thought, haveThought := d.memory.LastThought()
	call, haveCall := d.memory.LastCall()
	d.mu.Unlock()

	d.maybeRecordEpisode(res, thought, haveThought, call, haveCall)
}

// parseArgs interprets the call content as a JSON argument object when it is
// one; any other payload is passed through under the "input" key.
func parseArgs(content string) map[string]any {
	if content == "" {
		return map[string]any{}
	}
	if gjson.Valid(content) {
		if v := gjson.Parse(content); v.IsObject() {
			if m, ok := v.Value().(map[string]any); ok {
				return m
			}
		}
	}
	return map[string]any{"input": content}
}

// resultData normalizes a handler return value into the result data map.
func resultData(result any) map[string]any {
	switch v := result.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	default:
		return map[string]any{"result": v}
	}
}
