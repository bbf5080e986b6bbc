// Package engine runs conversational turns against the Anthropic Messages
// API, threading each turn through the memory pipeline hooks and executing
// tool calls from the registry.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/atomhq/atom-go-sdk/core"
	"github.com/atomhq/atom-go-sdk/logging"
	"github.com/atomhq/atom-go-sdk/memory"
	"github.com/atomhq/atom-go-sdk/tools"
)

// DefaultSystemPrompt is used when no system prompt is configured.
const DefaultSystemPrompt = `You are a helpful personal assistant with long-term memory.

GUIDELINES:
- Be conversational and concise
- Use retrieve_memory when prior context about the user would improve your answer
- Use save_memory when the user shares something durable worth remembering
- Never mention the memory system unless the user asks about it`

const defaultMaxToolRounds = 8

// Engine drives the conversational loop.
type Engine struct {
	client        *anthropic.Client
	pipeline      *memory.Pipeline
	registry      *tools.Registry
	log           logging.Logger
	model         string
	maxTokens     int64
	systemPrompt  string
	maxToolRounds int
}

// Option configures the engine.
type Option func(*Engine)

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithLogger sets the engine logger.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine. The pipeline and registry are both optional: a nil
// pipeline disables memory hooks, an empty registry disables tools.
func New(client *anthropic.Client, pipeline *memory.Pipeline, registry *tools.Registry, opts ...Option) *Engine {
	e := &Engine{
		client:        client,
		pipeline:      pipeline,
		registry:      registry,
		log:           logging.Default(),
		model:         "claude-sonnet-4-20250514",
		maxTokens:     4096,
		systemPrompt:  DefaultSystemPrompt,
		maxToolRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a completed conversational turn.
type Result struct {
	// Text is the assistant's final reply.
	Text string

	// Messages is the updated sequence including the user message and the
	// assistant reply, suitable as history for the next turn.
	Messages []core.Message

	// ToolsUsed lists the tool names invoked during the turn, in order.
	ToolsUsed []string
}

// Turn processes one user message: memory hooks fire before and after the
// model call, tool calls resolve inside the turn, and the reply comes back
// with the updated message sequence.
func (e *Engine) Turn(ctx context.Context, sessionID string, history []core.Message, userMessage string) (*Result, error) {
	msgs := append(append([]core.Message(nil), history...), core.NewUserMessage(userMessage))
	if e.pipeline != nil {
		msgs = e.pipeline.BeforeModel(sessionID, msgs)
	}

	systemBlocks := e.systemBlocks(msgs)
	apiMsgs := toMessageParams(msgs)
	apiTools := e.apiTools()

	var toolsUsed []string
	var finalText string
	for round := 0; ; round++ {
		if round >= e.maxToolRounds {
			return nil, fmt.Errorf("exceeded maximum tool rounds (%d)", e.maxToolRounds)
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: e.maxTokens,
			Messages:  apiMsgs,
			System:    systemBlocks,
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		resp, err := e.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		var text strings.Builder
		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
			case "tool_use":
				toolsUsed = append(toolsUsed, block.Name)
				out, isErr := e.executeTool(ctx, block.Name, block.Input)
				toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, out, isErr))
			}
		}

		if len(toolResults) == 0 {
			finalText = text.String()
			break
		}
		apiMsgs = append(apiMsgs, resp.ToParam())
		apiMsgs = append(apiMsgs, anthropic.NewUserMessage(toolResults...))
	}

	msgs = append(msgs, core.NewAssistantMessage(finalText))
	if e.pipeline != nil {
		e.pipeline.AfterTurn(sessionID, msgs)
	}

	return &Result{Text: finalText, Messages: msgs, ToolsUsed: toolsUsed}, nil
}

func (e *Engine) executeTool(ctx context.Context, name string, input []byte) (string, bool) {
	if e.registry == nil {
		return fmt.Sprintf("unknown tool: %s", name), true
	}
	tool, ok := e.registry.Get(name)
	if !ok {
		return fmt.Sprintf("unknown tool: %s", name), true
	}

	out, err := tool.Execute(ctx, input)
	if err != nil {
		e.log.Warn("tool execution failed", "tool", name, "error", err.Error())
		return err.Error(), true
	}
	return out, false
}

// systemBlocks assembles the System parameter: the configured prompt first,
// then any system messages from the sequence (including injected memory
// context).
func (e *Engine) systemBlocks(msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if e.systemPrompt != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: e.systemPrompt})
	}
	for _, m := range msgs {
		if m.IsSystem() && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// toMessageParams converts the conversational messages; system messages
// travel separately as System blocks.
func toMessageParams(msgs []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range msgs {
		switch {
		case m.IsUser():
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case m.IsAssistant():
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func (e *Engine) apiTools() []anthropic.ToolUnionParam {
	if e.registry == nil {
		return nil
	}
	list := e.registry.List()
	out := make([]anthropic.ToolUnionParam, 0, len(list))
	for _, t := range list {
		schema := t.Schema()
		inputSchema := anthropic.ToolInputSchemaParam{}
		if props, ok := schema["properties"]; ok {
			inputSchema.Properties = props
		}
		if required, ok := schema["required"].([]string); ok {
			inputSchema.Required = required
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: inputSchema,
			},
		})
	}
	return out
}
