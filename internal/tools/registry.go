package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler executes one tool call. Handlers convert every failure into an
// error Result; they do not return Go errors to the transport.
type Handler func(ctx context.Context, args json.RawMessage) Result

// Tool pairs a name and JSON schema with its handler.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Registry maps tool names to handlers, preserving registration order for
// tools/list.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are a programming error.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %q: handler required", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call dispatches a tool by name. The second return is false when the name
// is unknown.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (Result, bool) {
	tool, ok := r.tools[name]
	if !ok {
		return Result{}, false
	}
	return tool.Handler(ctx, args), true
}
