package testutil

import (
	"sync"

	"github.com/hupe1980/tagflow/core"
)

// StreamNotification is one OnLogStream callback invocation.
type StreamNotification struct {
	Record core.Record
	Final  bool
}

// HookRecorder captures hook invocations for assertions. Safe for concurrent
// use; hook callbacks may fire from detached goroutines.
type HookRecorder struct {
	mu       sync.Mutex
	stream   []StreamNotification
	thoughts []core.Thought
}

// Hooks returns a core.Hooks wired to this recorder.
func (r *HookRecorder) Hooks() core.Hooks {
	return core.Hooks{
		OnLogStream: func(rec core.Record, final bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.stream = append(r.stream, StreamNotification{Record: rec, Final: final})
		},
		OnThinking: func(th core.Thought) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.thoughts = append(r.thoughts, th)
		},
	}
}

// Stream returns a copy of all log stream notifications so far.
func (r *HookRecorder) Stream() []StreamNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StreamNotification{}, r.stream...)
}

// FinalStream returns only the final (committed) notifications.
func (r *HookRecorder) FinalStream() []StreamNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StreamNotification
	for _, n := range r.stream {
		if n.Final {
			out = append(out, n)
		}
	}
	return out
}

// Thoughts returns a copy of all OnThinking notifications so far.
func (r *HookRecorder) Thoughts() []core.Thought {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Thought{}, r.thoughts...)
}

// ChunkStream returns a closed channel pre-filled with the given chunks, in
// order. Useful for driving a dispatcher without a goroutine.
func ChunkStream(chunks ...string) <-chan string {
	ch := make(chan string, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// SplitChunks slices text into fixed-size chunks so chunk-boundary handling
// gets exercised at every offset.
func SplitChunks(text string, size int) []string {
	if size <= 0 || size >= len(text) {
		return []string{text}
	}
	var out []string
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
	}
	return out
}
