package tagflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tagflow/action"
	"github.com/hupe1980/tagflow/core"
	"github.com/hupe1980/tagflow/episodic"
	"github.com/hupe1980/tagflow/model"
	"github.com/hupe1980/tagflow/output"
)

func TestProcessCommitsRecords(t *testing.T) {
	tf := New()
	tf.RegisterAction(action.NewFunctionAction("echo", "Echo the arguments back",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			return args, nil
		},
	))
	tf.RegisterOutput(output.NewFunctionHandler("text", "Collect text",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(octx *core.OutputContext, payload map[string]any) ([]map[string]any, error) {
			return []map[string]any{payload}, nil
		},
	))

	records, err := tf.Process(context.Background(), "sess-1",
		`<think>plan</think>`+
			`<action_call name="echo">{"q": "go"}</action_call>`+
			`<output type="text">{"text": "done"}</output>`,
	)
	require.NoError(t, err)

	// Thought, call, result and output ref.
	require.Len(t, records, 4)
	_, isThought := records[0].(core.Thought)
	assert.True(t, isThought)
}

func TestProcessAccumulatesAcrossCalls(t *testing.T) {
	tf := New()

	first, err := tf.Process(context.Background(), "sess-1", "<think>a</think>")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := tf.Process(context.Background(), "sess-1", "<think>b</think>")
	require.NoError(t, err)
	require.Len(t, second, 1)

	th, ok := second[0].(core.Thought)
	require.True(t, ok)
	assert.Equal(t, "b", th.Content)
}

func TestRunWithMockSource(t *testing.T) {
	episodes := episodic.NewInMemoryStore()
	tf := New(func(o *Options) { o.EpisodeStore = episodes })
	tf.RegisterAction(action.NewFunctionAction("echo", "Echo the arguments back",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(actx *core.ActionContext, args map[string]any) (any, error) {
			return args, nil
		},
	))

	source := model.NewMockSource(5)
	source.AddResponse("go",
		`<think>echo it</think><action_call name="echo">{"n": 1}</action_call>`)

	runID, errorsCh, err := tf.Run(context.Background(), "sess-1", source, model.Request{
		Messages: []model.Message{{Role: "user", Content: "go"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	for err := range errorsCh {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, episodes.Len("sess-1"))
}

func TestHooksReceiveStreamingUpdates(t *testing.T) {
	var partials, finals int
	hooks := core.Hooks{
		OnLogStream: func(rec core.Record, final bool) {
			if final {
				finals++
			} else {
				partials++
			}
		},
	}
	tf := New(func(o *Options) { o.Hooks = hooks })

	_, err := tf.Process(context.Background(), "sess-1", "<think>stream me</think>")
	require.NoError(t, err)

	assert.Greater(t, partials, 0)
	assert.Equal(t, 1, finals)
}
