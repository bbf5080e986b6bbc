// Package tools defines the capability interface the conversational model
// can invoke, a registry to hold implementations, and the built-in memory
// tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Tool is a single capability exposed to the model.
type Tool interface {
	// Name returns the tool identifier sent to the model.
	Name() string

	// Description explains when the model should use the tool.
	Description() string

	// Schema returns the JSON Schema for the tool input.
	Schema() map[string]interface{}

	// Execute runs the tool with the raw JSON input and returns the text
	// result fed back to the model.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry holds tools by name, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are an error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}
