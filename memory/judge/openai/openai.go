// Package openai implements the memory.Judge interface over the OpenAI
// Chat Completions API. With a custom base URL it also drives local
// OpenAI-compatible servers (LM Studio, Ollama, vLLM), which is the usual
// deployment for the small local judge model.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the judge client.
type Options struct {
	// Model is the model identifier sent with each request.
	Model string

	// BaseURL overrides the API endpoint; empty uses the OpenAI default.
	BaseURL string

	// APIKey authenticates requests. Local servers typically accept any
	// non-empty value.
	APIKey string

	// MaxTokens bounds the judge reply (default 1024).
	MaxTokens int64
}

// Judge makes single-shot structured decisions via a chat completion call.
type Judge struct {
	client openai.Client
	opts   Options
}

// New creates a judge client, building the underlying OpenAI client from
// the options.
func New(optFns ...func(o *Options)) *Judge {
	opts := applyOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Judge{client: client, opts: opts}
}

// NewFromClient creates a judge client from an existing OpenAI client.
func NewFromClient(client openai.Client, optFns ...func(o *Options)) *Judge {
	return &Judge{client: client, opts: applyOptions(optFns)}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:     openai.ChatModelGPT4oMini,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Invoke sends the prompt as a single user message and returns the reply
// text. Temperature is pinned to zero so decisions stay reproducible.
func (j *Judge) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := j.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: j.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(j.opts.MaxTokens),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("judge completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("judge completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
