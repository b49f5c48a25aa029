package episodic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tagflow/core"
)

func sampleEpisode(sessionID, thought, actionName string) core.Episode {
	call := core.NewActionCall(actionName, `{"q": "go"}`)
	return core.Episode{
		SessionID: sessionID,
		Thought:   core.NewThought(thought),
		Call:      call,
		Result:    core.NewActionResult(call.ID, actionName, map[string]any{"hits": 3}),
	}
}

func TestInMemoryStoreRecordAndLen(t *testing.T) {
	s := NewInMemoryStore()
	require.Equal(t, 0, s.Len("sess-1"))

	require.NoError(t, s.RecordEpisode(context.Background(), sampleEpisode("sess-1", "a", "search")))
	require.NoError(t, s.RecordEpisode(context.Background(), sampleEpisode("sess-1", "b", "search")))
	require.NoError(t, s.RecordEpisode(context.Background(), sampleEpisode("sess-2", "c", "search")))

	assert.Equal(t, 2, s.Len("sess-1"))
	assert.Equal(t, 1, s.Len("sess-2"))
}

func TestInMemoryStoreRecordCancelled(t *testing.T) {
	s := NewInMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RecordEpisode(ctx, sampleEpisode("sess-1", "a", "search"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len("sess-1"))
}

func TestInMemoryStoreSearch(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.RecordEpisode(ctx, sampleEpisode("sess-1", "check the weather", "weather")))
	require.NoError(t, s.RecordEpisode(ctx, sampleEpisode("sess-1", "compute a sum", "calculator")))

	// Matches thought content, case insensitive.
	episodes, err := s.Search("sess-1", "WEATHER", 10)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "check the weather", episodes[0].Thought.Content)

	// Matches action name.
	episodes, err = s.Search("sess-1", "calculator", 10)
	require.NoError(t, err)
	require.Len(t, episodes, 1)

	// Empty query matches everything.
	episodes, err = s.Search("sess-1", "", 10)
	require.NoError(t, err)
	assert.Len(t, episodes, 2)

	// Unknown session yields nothing.
	episodes, err = s.Search("sess-9", "weather", 10)
	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestInMemoryStoreSearchLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordEpisode(ctx, sampleEpisode("sess-1", "same thought", "search")))
	}

	episodes, err := s.Search("sess-1", "same", 3)
	require.NoError(t, err)
	assert.Len(t, episodes, 3)
}

func TestInMemoryStoreSearchResultData(t *testing.T) {
	s := NewInMemoryStore()
	call := core.NewActionCall("fetch", "{}")
	ep := core.Episode{
		SessionID: "sess-1",
		Thought:   core.NewThought("get the doc"),
		Call:      call,
		Result:    core.NewActionResult(call.ID, "fetch", map[string]any{"title": "Effective Go"}),
	}
	require.NoError(t, s.RecordEpisode(context.Background(), ep))

	episodes, err := s.Search("sess-1", "effective go", 10)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}
