// Package anthropic adapts the Anthropic Messages API (streaming) into the
// generic model.StreamSource contract: every text delta is forwarded as one
// text chunk.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/tagflow/model"
)

// Options configures the Anthropic stream source (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Source wraps the Anthropic Messages API behind model.StreamSource.
type Source struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewSource creates a new Anthropic source using the official client.
func NewSource(optFns ...func(o *Options)) *Source {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Source{client: &client, opts: opts}
}

// NewSourceFromClient creates a new Anthropic source from an existing client.
func NewSourceFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Source {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Source{client: client, opts: opts}
}

// Stream implements model.StreamSource.
func (s *Source) Stream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	chunks := make(chan string, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       s.opts.Model,
			Messages:    buildMessages(req),
			MaxTokens:   s.opts.MaxTokens,
			Temperature: anthropic.Float(s.opts.Temperature),
		}
		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}

		stream := s.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if deltaVariant.Text == "" {
						continue
					}
					select {
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					case chunks <- deltaVariant.Text:
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		}
	}()

	return chunks, errCh
}

// buildMessages converts the normalized request into Anthropic messages.
// System content is handled via params.System, not the message list.
func buildMessages(req model.Request) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		if m.Content == "" || m.Role == "system" {
			continue
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return messages
}

// Info returns metadata describing this Anthropic source implementation.
func (s *Source) Info() model.Info {
	return model.Info{Name: string(s.opts.Model), Provider: "anthropic"}
}
