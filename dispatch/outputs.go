package dispatch

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/internal/util"
	"github.com/hupe1980/tagflow/parser"
)

// handleOutput validates and dispatches a finalized output element. The
// handler may yield zero, one or many refs; each is committed individually.
// Failures degrade to a single error-flagged ref, never an abort.
func (d *Dispatcher) handleOutput(el parser.Element) {
	outputType, ok := el.Attribute("type")
	if !ok || outputType == "" {
		// Required attribute missing: dropped, non-fatal.
		d.logger.Error("dispatch.output.missing_type",
			"session_id", d.sessionID, "index", el.Index)
		return
	}

	refs := d.dispatchOutput(outputType, el)

	d.mu.Lock()
	for _, ref := range refs {
		d.chain.Append(ref)
		d.memory.AppendOutput(ref)
		d.hooks.EmitLogStream(ref, true)
	}
	d.mu.Unlock()

	d.logger.Debug("dispatch.output.committed",
		"session_id", d.sessionID, "output_type", outputType, "refs", len(refs))
}

// dispatchOutput resolves the handler, validates the payload against its
// declared schema and collects the resulting refs.
func (d *Dispatcher) dispatchOutput(outputType string, el parser.Element) []core.OutputRef {
	handler, found := d.outputs.Lookup(outputType)
	if !found {
		err := fmt.Errorf("no handler registered for output type %q", outputType)
		d.logger.Warn("dispatch.output.unknown_type",
			"session_id", d.sessionID, "output_type", outputType)
		return []core.OutputRef{errorRef(outputType, err)}
	}

	payload := parsePayload(trimmedText(el))

	if err := util.ValidateParameters(payload, handler.Schema()); err != nil {
		d.logger.Warn("dispatch.output.validation_failed",
			"session_id", d.sessionID, "output_type", outputType, "error", err.Error())
		return []core.OutputRef{errorRef(outputType, err)}
	}

	octx := core.NewOutputContext(d.ctx, d.sessionID, d.runID, outputType, el.Attributes, d.memory, d.logger)

	var (
		datas []map[string]any
		err   error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("output handler panic: %v", r)
			}
		}()
		datas, err = handler.Handle(octx, payload)
	}()
	if err != nil {
		d.logger.Warn("dispatch.output.handler_failed",
			"session_id", d.sessionID, "output_type", outputType, "error", err.Error())
		return []core.OutputRef{errorRef(outputType, err)}
	}

	refs := make([]core.OutputRef, 0, len(datas))
	for _, data := range datas {
		refs = append(refs, core.NewOutputRef(outputType, data))
	}
	return refs
}

// parsePayload interprets the trimmed element content as a JSON object when
// it is one; any other payload is passed through under the "text" key.
func parsePayload(content string) map[string]any {
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
	return map[string]any{"text": content}
}

func errorRef(outputType string, err error) core.OutputRef {
	return core.NewOutputRef(outputType, map[string]any{"error": err.Error()})
}
