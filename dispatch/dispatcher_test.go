package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/episodic"
	"github.com/hupe1980/tagflow/internal/testutil"
	"github.com/hupe1980/tagflow/output"
)

type fixture struct {
	dispatcher *Dispatcher
	chain      *core.Chain
	memory     *core.WorkingMemory
	actions    *action.Registry
	outputs    *output.Registry
	recorder   *testutil.HookRecorder
}

func newFixture(t *testing.T, optFns ...func(cfg *Config)) *fixture {
	t.Helper()

	f := &fixture{
		chain:    core.NewChain(),
		memory:   core.NewWorkingMemory(),
		actions:  action.NewRegistry(),
		outputs:  output.NewRegistry(),
		recorder: &testutil.HookRecorder{},
	}

	cfg := Config{
		SessionID: "sess-1",
		RunID:     "run-1",
		Tags:      DefaultTags(),
		Chain:     f.chain,
		Memory:    f.memory,
		Actions:   f.actions,
		Outputs:   f.outputs,
		Hooks:     f.recorder.Hooks(),
	}
	for _, fn := range optFns {
		fn(&cfg)
	}

	f.dispatcher = New(cfg)
	return f
}

func (f *fixture) run(t *testing.T, chunks ...string) {
	t.Helper()

	err := f.dispatcher.Run(context.Background(), testutil.ChunkStream(chunks...))
	require.NoError(t, err)
	f.dispatcher.Wait()
}

func echoAction() action.Action {
	return action.NewFunctionAction("echo", "Echo the arguments back",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			return args, nil
		},
	)
}

func textHandler() output.Handler {
	return output.NewFunctionHandler("text", "Collect plain text output",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
			return []map[string]any{payload}, nil
		},
	)
}

func TestDispatcherThoughtCommit(t *testing.T) {
	f := newFixture(t)
	f.run(t, "<think>deep thought</think>")

	thoughts := f.memory.Thoughts()
	require.Len(t, thoughts, 1)
	assert.Equal(t, "deep thought", thoughts[0].Content)
	assert.Equal(t, 1, f.chain.Len())

	require.Len(t, f.recorder.Thoughts(), 1)
	assert.Equal(t, thoughts[0].ID, f.recorder.Thoughts()[0].ID)
}

func TestDispatcherThoughtAcrossChunkBoundaries(t *testing.T) {
	f := newFixture(t)
	f.run(t, "<thi", "nk>hel", "lo</think>")

	thoughts := f.memory.Thoughts()
	require.Len(t, thoughts, 1)
	assert.Equal(t, "hello", thoughts[0].Content)
	assert.Equal(t, 1, f.chain.Len())
}

func TestDispatcherThoughtIDStableAcrossPartials(t *testing.T) {
	f := newFixture(t)
	f.run(t, "<think>a", "b", "c</think>")

	var ids []string
	for _, n := range f.recorder.Stream() {
		if th, ok := n.Record.(core.Thought); ok {
			ids = append(ids, th.ID)
		}
	}
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	finals := f.recorder.FinalStream()
	require.Len(t, finals, 1)
	assert.True(t, finals[0].Final)
}

func TestDispatcherReasoningTagCommitsThought(t *testing.T) {
	f := newFixture(t)
	f.run(t, "<reasoning>careful</reasoning>")

	thoughts := f.memory.Thoughts()
	require.Len(t, thoughts, 1)
	assert.Equal(t, "careful", thoughts[0].Content)
}

func TestDispatcherActionCallExecutes(t *testing.T) {
	f := newFixture(t)
	f.actions.Register(echoAction())

	f.run(t, `<action_call name="echo">{"q": "go"}</action_call>`)

	calls := f.memory.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "echo", calls[0].Name)
	assert.Equal(t, `{"q": "go"}`, calls[0].Content)

	results := f.memory.Results()
	require.Len(t, results, 1)
	assert.Equal(t, calls[0].ID, results[0].CallID)
	assert.Equal(t, "go", results[0].Data["q"])
	_, failed := results[0].Err()
	assert.False(t, failed)
}

func TestDispatcherNonJSONArgsPassedAsInput(t *testing.T) {
	f := newFixture(t)
	f.actions.Register(echoAction())

	f.run(t, `<action_call name="echo">just words</action_call>`)

	results := f.memory.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "just words", results[0].Data["input"])
}

func TestDispatcherUnknownActionYieldsErrorResult(t *testing.T) {
	f := newFixture(t)
	f.run(t, `<action_call name="missing">{}</action_call>`)

	require.Len(t, f.memory.Calls(), 1)

	results := f.memory.Results()
	require.Len(t, results, 1)
	msg, failed := results[0].Err()
	require.True(t, failed)
	assert.Contains(t, msg, "missing")
}

func TestDispatcherActionErrorYieldsErrorResult(t *testing.T) {
	f := newFixture(t)
	failing := action.NewFunctionAction("boom", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			return nil, errors.New("backend down")
		},
	)
	f.actions.Register(failing)

	f.run(t, `<action_call name="boom">{}</action_call>`)

	results := f.memory.Results()
	require.Len(t, results, 1)
	msg, failed := results[0].Err()
	require.True(t, failed)
	assert.Contains(t, msg, "backend down")
}

func TestDispatcherActionPanicYieldsErrorResult(t *testing.T) {
	f := newFixture(t)
	panicking := action.NewFunctionAction("panic", "Always panics",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			panic("kaboom")
		},
	)
	f.actions.Register(panicking)

	f.run(t, `<action_call name="panic">{}</action_call>`)

	results := f.memory.Results()
	require.Len(t, results, 1)
	msg, failed := results[0].Err()
	require.True(t, failed)
	assert.Contains(t, msg, "kaboom")
}

func TestDispatcherActionCallMissingNameDropped(t *testing.T) {
	f := newFixture(t)
	f.run(t, `<action_call>{}</action_call>`)

	assert.Equal(t, 0, f.chain.Len())
	assert.Empty(t, f.memory.Calls())
	assert.Empty(t, f.memory.Results())
}

func TestDispatcherResultsCommitInCompletionOrder(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	slow := action.NewFunctionAction("slow", "Blocks until released",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			<-release
			return map[string]any{"who": "slow"}, nil
		},
	)
	fast := action.NewFunctionAction("fast", "Returns immediately",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			return map[string]any{"who": "fast"}, nil
		},
	)
	f.actions.Register(slow)
	f.actions.Register(fast)

	err := f.dispatcher.Run(context.Background(), testutil.ChunkStream(
		`<action_call name="slow">{}</action_call><action_call name="fast">{}</action_call>`,
	))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.memory.Results()) == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	f.dispatcher.Wait()

	// Calls keep positional order; results land in completion order.
	calls := f.memory.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "slow", calls[0].Name)
	assert.Equal(t, "fast", calls[1].Name)

	results := f.memory.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "fast", results[0].Name)
	assert.Equal(t, "slow", results[1].Name)
}

func TestDispatcherRunningActionDeliversAfterCancel(t *testing.T) {
	f := newFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := action.NewFunctionAction("block", "Blocks until released",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			close(started)
			<-release
			return map[string]any{"ok": true}, nil
		},
	)
	f.actions.Register(blocking)

	ctx, cancel := context.WithCancel(context.Background())
	chunks := make(chan string, 1)
	chunks <- `<action_call name="block">{}</action_call>`

	done := make(chan error, 1)
	go func() { done <- f.dispatcher.Run(ctx, chunks) }()

	<-started
	cancel()
	close(release)

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	f.dispatcher.Wait()

	// The execution had already started, so its result still commits.
	results := f.memory.Results()
	require.Len(t, results, 1)
	assert.Equal(t, true, results[0].Data["ok"])
}

func TestDispatcherRunCancelled(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.dispatcher.Run(ctx, make(chan string))
	require.ErrorIs(t, err, context.Canceled)
}

// A chunk already buffered when cancellation fires must not be processed:
// the cancellation signal is checked before each chunk. Repeated rounds
// because select case order is randomized.
func TestDispatcherCancelledWithBufferedChunk(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := newFixture(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		chunks := make(chan string, 1)
		chunks <- "<think>late</think>"

		err := f.dispatcher.Run(ctx, chunks)
		require.ErrorIs(t, err, context.Canceled)
		f.dispatcher.Wait()

		assert.Equal(t, 0, f.chain.Len())
		assert.Empty(t, f.memory.Thoughts())
	}
}

func TestDispatcherOutputDispatch(t *testing.T) {
	f := newFixture(t)
	f.outputs.Register(textHandler())

	f.run(t, `<output type="text">{"text": "hello"}</output>`)

	outputs := f.memory.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "text", outputs[0].Type)
	assert.Equal(t, "hello", outputs[0].Data["text"])
}

func TestDispatcherOutputPlainTextPayload(t *testing.T) {
	f := newFixture(t)
	f.outputs.Register(textHandler())

	f.run(t, `<output type="text">plain words</output>`)

	outputs := f.memory.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "plain words", outputs[0].Data["text"])
}

func TestDispatcherOutputMultipleRefs(t *testing.T) {
	f := newFixture(t)
	multi := output.NewFunctionHandler("fanout", "Yields several refs",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
			return []map[string]any{{"n": 1}, {"n": 2}, {"n": 3}}, nil
		},
	)
	f.outputs.Register(multi)

	f.run(t, `<output type="fanout">{}</output>`,
	)

	assert.Len(t, f.memory.Outputs(), 3)
	assert.Equal(t, 3, f.chain.Len())
}

func TestDispatcherOutputUnknownTypeYieldsErrorRef(t *testing.T) {
	f := newFixture(t)
	f.run(t, `<output type="nope">{}</output>`)

	outputs := f.memory.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "nope", outputs[0].Type)
	assert.Contains(t, outputs[0].Data["error"], "no handler registered")
}

func TestDispatcherOutputHandlerErrorYieldsErrorRef(t *testing.T) {
	f := newFixture(t)
	failing := output.NewFunctionHandler("fail", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
			return nil, errors.New("sink unavailable")
		},
	)
	f.outputs.Register(failing)

	f.run(t, `<output type="fail">{}</output>`)

	outputs := f.memory.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "sink unavailable", outputs[0].Data["error"])
}

func TestDispatcherOutputValidationFailureYieldsErrorRef(t *testing.T) {
	f := newFixture(t)
	strict := output.NewFunctionHandler("strict", "Requires text",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
			return []map[string]any{payload}, nil
		},
	)
	f.outputs.Register(strict)

	f.run(t, `<output type="strict">{"other": 1}</output>`)

	outputs := f.memory.Outputs()
	require.Len(t, outputs, 1)
	_, hasErr := outputs[0].Data["error"]
	assert.True(t, hasErr)
}

func TestDispatcherOutputMissingTypeDropped(t *testing.T) {
	f := newFixture(t)
	f.outputs.Register(textHandler())

	f.run(t, `<output>{"text": "hi"}</output>`)

	assert.Equal(t, 0, f.chain.Len())
	assert.Empty(t, f.memory.Outputs())
}

func TestDispatcherEpisodeRecordedOnResult(t *testing.T) {
	store := episodic.NewInMemoryStore()
	f := newFixture(t, func(cfg *Config) { cfg.Episodes = store })
	f.actions.Register(echoAction())

	f.run(t,
		"<think>need data</think>",
		`<action_call name="echo">{"q": "go"}</action_call>`,
	)

	assert.Equal(t, 1, store.Len("sess-1"))

	episodes, err := store.Search("sess-1", "need data", 10)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "echo", episodes[0].Call.Name)
}

// Episode capture pairs the result with the most recent thought by position,
// not the thought that actually motivated the call. Known limitation.
func TestDispatcherEpisodeUsesMostRecentThought(t *testing.T) {
	store := episodic.NewInMemoryStore()
	f := newFixture(t, func(cfg *Config) { cfg.Episodes = store })
	f.actions.Register(echoAction())

	f.run(t,
		"<think>original intent</think>",
		"<think>unrelated aside</think>",
		`<action_call name="echo">{}</action_call>`,
	)

	episodes, err := store.Search("sess-1", "", 10)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "unrelated aside", episodes[0].Thought.Content)
}

func TestDispatcherNoEpisodeWithoutThought(t *testing.T) {
	store := episodic.NewInMemoryStore()
	f := newFixture(t, func(cfg *Config) { cfg.Episodes = store })
	f.actions.Register(echoAction())

	f.run(t, `<action_call name="echo">{}</action_call>`)

	assert.Equal(t, 0, store.Len("sess-1"))
}

func TestDispatcherStartIndexContinuity(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.StartIndex = 7 })
	f.run(t, "<think>a</think><think>b</think>")

	assert.Equal(t, 9, f.dispatcher.NextIndex())
}

func TestDispatcherUnterminatedElementNeverCommits(t *testing.T) {
	f := newFixture(t)
	f.run(t, "<think>never closed")

	assert.Equal(t, 0, f.chain.Len())
	assert.Empty(t, f.memory.Thoughts())
}

func TestDispatcherInterleavedSemanticElements(t *testing.T) {
	f := newFixture(t)
	f.actions.Register(echoAction())
	f.outputs.Register(textHandler())

	f.run(t,
		"ignored preamble ",
		"<think>plan</think>",
		`<action_call name="echo">{"step": 1}</action_call>`,
		`<output type="text">{"text": "done"}</output>`,
		" ignored postamble",
	)

	assert.Len(t, f.memory.Thoughts(), 1)
	assert.Len(t, f.memory.Calls(), 1)
	assert.Len(t, f.memory.Results(), 1)
	assert.Len(t, f.memory.Outputs(), 1)
	assert.Equal(t, 4, f.chain.Len())

	// Chain order: thought, call, then result and output in completion order.
	records := f.chain.Records()
	_, isThought := records[0].(core.Thought)
	assert.True(t, isThought)
	_, isCall := records[1].(core.ActionCall)
	assert.True(t, isCall)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		content string
		want    map[string]any
	}{
		{"", map[string]any{}},
		{`{"a": "b"}`, map[string]any{"a": "b"}},
		{`[1, 2]`, map[string]any{"input": "[1, 2]"}},
		{"plain", map[string]any{"input": "plain"}},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, tt.want, parseArgs(tt.content))
		})
	}
}

func TestResultData(t *testing.T) {
	assert.Equal(t, map[string]any{}, resultData(nil))
	assert.Equal(t, map[string]any{"a": 1}, resultData(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"result": 42}, resultData(42))
}
