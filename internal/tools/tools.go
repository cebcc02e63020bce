// Package tools exposes the analyses as named string-in, string-out
// capabilities that the agent can call.
package tools

import (
	"context"
	"fmt"
	"sort"
)

// Func runs a tool on the model-supplied input.
type Func func(ctx context.Context, input string) (string, error)

// Tool is a named capability with a description shown to the model.
type Tool struct {
	Name        string
	Description string
	Run         Func
}

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. It panics if the name is empty or already taken.
func (r *Registry) Register(t Tool) {
	if t.Name == "" {
		panic("tools: empty tool name")
	}
	if _, dup := r.tools[t.Name]; dup {
		panic(fmt.Sprintf("tools: duplicate tool %q", t.Name))
	}
	r.tools[t.Name] = t
}

// Get returns the named tool, or false if none is registered.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns registered tools sorted by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name, input string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	out, err := t.Run(ctx, input)
	if err != nil {
		return "", fmt.Errorf("running %s: %w", name, err)
	}
	return out, nil
}
