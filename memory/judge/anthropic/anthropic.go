// Package anthropic implements the memory.Judge interface over the
// Anthropic Messages API, for deployments that run the judge on a hosted
// Claude model instead of a local server.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Options configure the judge client.
type Options struct {
	// Model is the model identifier sent with each request.
	Model anthropic.Model

	// APIKey authenticates requests; empty falls back to the environment.
	APIKey string

	// MaxTokens bounds the judge reply (default 1024).
	MaxTokens int64
}

// Judge makes single-shot structured decisions via the Messages API.
type Judge struct {
	client *anthropic.Client
	opts   Options
}

// New creates a judge client using the official Anthropic client.
func New(optFns ...func(o *Options)) *Judge {
	opts := applyOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Judge{client: &client, opts: opts}
}

// NewFromClient creates a judge client from an existing Anthropic client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Judge {
	return &Judge{client: client, opts: applyOptions(optFns)}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Haiku20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Invoke sends the prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (j *Judge) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     j.opts.Model,
		MaxTokens: j.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("judge message: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("judge message: no text content returned")
	}
	return sb.String(), nil
}
