package model

import (
	"context"
	"fmt"
)

// Message is a single conversational turn handed to a StreamSource.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// Request captures the normalized input for one generation.
type Request struct {
	Instructions string    `json:"instructions"` // System instructions
	Messages     []Message `json:"messages"`
}

// Info contains metadata about a stream source implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// StreamSource produces an ordered, finite sequence of text chunks with
// arbitrary boundaries. Both channels close when the stream ends; the error
// channel carries at most one terminal error. Implementations must respect
// ctx cancellation.
type StreamSource interface {
	Stream(ctx context.Context, req Request) (<-chan string, <-chan error)

	// Info returns information about the source implementation.
	Info() Info
}

// MockSource is a lightweight in-memory StreamSource useful for tests &
// examples. It replays canned responses split into fixed-size chunks so
// chunk-boundary handling downstream gets exercised.
type MockSource struct {
	info      Info
	responses map[string]string
	chunkSize int
}

// NewMockSource constructs a MockSource emitting chunks of the given size
// (<=0 means the whole response as one chunk).
func NewMockSource(chunkSize int) *MockSource {
	return &MockSource{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
		chunkSize: chunkSize,
	}
}

// AddResponse registers a deterministic canned response for an input prompt.
func (m *MockSource) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Stream implements StreamSource; replays the canned response for the last
// message's content.
func (m *MockSource) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		full, ok := m.responses[prompt]
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", prompt)
		}

		size := m.chunkSize
		if size <= 0 {
			size = len(full)
		}
		for start := 0; start < len(full); start += size {
			end := start + size
			if end > len(full) {
				end = len(full)
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case chunks <- full[start:end]:
			}
		}
	}()

	return chunks, errCh
}

// Info implements StreamSource.
func (m *MockSource) Info() Info { return m.info }
