package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sleuth/internal/llm"
)

// Registry maps tool names to tools and runs them with the Env it was built
// with. Names are unique; a second registration under the same name fails.
type Registry struct {
	tools map[string]Tool
	order []string
	env   *Env
	mu    sync.RWMutex
}

func NewRegistry(env *Env) *Registry {
	if env == nil {
		env = &Env{}
	}
	return &Registry{
		tools: make(map[string]Tool),
		env:   env,
	}
}

// Env returns the execution environment handed to every tool.
func (r *Registry) Env() *Env {
	return r.env
}

func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// RegisterAll registers tools in order and stops at the first failure.
// Tools registered before the failing one stay registered.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// GetAll returns the registered tools in registration order.
func (r *Registry) GetAll() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]Tool)
	r.order = nil
}

// Subset returns a registry holding only the named tools and sharing this
// registry's Env.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry(r.env)
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			return nil, &ToolNotFoundError{Name: name}
		}
		if err := sub.Register(t); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Execute validates args against the tool schema and runs the tool. Every
// failure other than an unknown name is returned as *ToolExecutionError,
// including panics raised by the tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result any, err error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, &ToolNotFoundError{Name: name}
	}

	if args == nil {
		args = make(map[string]any)
	}
	if schema := t.Parameters(); schema != nil {
		schema.ApplyDefaults(args)
		if err := schema.Validate(args); err != nil {
			return nil, &ToolExecutionError{Name: name, Err: fmt.Errorf("%w: %v", ErrInvalidArguments, err)}
		}
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &ToolExecutionError{Name: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	result, err = t.Execute(ctx, args, r.env)
	if err != nil {
		return nil, &ToolExecutionError{Name: name, Err: err}
	}
	return result, nil
}

// ToWireFormat describes every registered tool in the shape completion
// providers expect.
func (r *Registry) ToWireFormat() []*llm.ToolDefinition {
	tools := r.GetAll()
	defs := make([]*llm.ToolDefinition, len(tools))

	for i, t := range tools {
		defs[i] = &llm.ToolDefinition{
			Type: "function",
			Function: &llm.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters().Map(),
			},
		}
	}

	return defs
}

// BestPractices collects the usage guidance of tools implementing
// BestPracticer, or "" when none has any.
func (r *Registry) BestPractices() string {
	var practices []string
	for _, t := range r.GetAll() {
		bp, ok := t.(BestPracticer)
		if !ok {
			continue
		}
		if text := bp.BestPractices(); text != "" {
			practices = append(practices, text)
		}
	}

	if len(practices) == 0 {
		return ""
	}
	return "# Tool Usage Best Practices\n\n" + strings.Join(practices, "\n\n")
}
