// Package openai adapts the OpenAI Chat Completions API (streaming) into the
// generic model.StreamSource contract: every content delta is forwarded as
// one text chunk.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/tagflow/model"
)

// Options configure the OpenAI stream source.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Source wraps the OpenAI Chat Completions API behind model.StreamSource.
type Source struct {
	client *openai.Client
	opts   Options
}

// NewSource creates a new OpenAI source using the official client.
func NewSource(optFns ...func(o *Options)) *Source {
	client := openai.NewClient()
	return NewSourceFromClient(&client, optFns...)
}

// NewSourceFromClient creates a new OpenAI source from an existing client.
func NewSourceFromClient(client *openai.Client, optFns ...func(o *Options)) *Source {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
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

		params := openai.ChatCompletionNewParams{
			Messages:            buildMessages(req),
			Model:               s.opts.Model,
			Temperature:         openai.Float(s.opts.Temperature),
			MaxCompletionTokens: openai.Int(s.opts.MaxCompletionTokens),
		}

		stream := s.client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case chunks <- ch.Delta.Content:
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
		}
	}()

	return chunks, errCh
}

// buildMessages converts the normalized request into OpenAI chat messages.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// Info returns metadata describing this OpenAI source implementation.
func (s *Source) Info() model.Info {
	return model.Info{Name: s.opts.Model, Provider: "openai"}
}
