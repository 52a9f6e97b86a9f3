package tool

import (
	"context"

	"sleuth/internal/logger"
)

// Tool defines the interface that all tools must implement
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description is shown to the model, never interpreted by sleuth
	Description() string

	// Parameters returns the schema arguments are validated against
	Parameters() *Schema

	// Execute runs the tool with validated arguments. The result is sent to
	// the model verbatim when it is a string and as JSON otherwise.
	Execute(ctx context.Context, args map[string]any, env *Env) (any, error)
}

// BestPracticer is implemented by tools that ship usage guidance for the
// system prompt.
type BestPracticer interface {
	BestPractices() string
}

// Env carries the collaborators a registry hands to every Execute call.
// The registry and the executor never look inside it.
type Env struct {
	WorkingDir string
	// Storage is an opaque handle owned by whoever builds the registry.
	Storage any
	Logger  *logger.Logger
}

// Log returns the env logger or a discarding one.
func (e *Env) Log() *logger.Logger {
	if e == nil || e.Logger == nil {
		return logger.Discard()
	}
	return e.Logger
}

// Dir returns the working directory, "." when unset.
func (e *Env) Dir() string {
	if e == nil || e.WorkingDir == "" {
		return "."
	}
	return e.WorkingDir
}
