package hook

import (
	"context"
	"time"
)

// HookPoint defines when a hook is triggered
type HookPoint string

const (
	// BeforeToolExecution handlers may deny a tool call; the denial is fed
	// back to the model as a failed tool result.
	BeforeToolExecution HookPoint = "before_tool_execution"
	AfterToolExecution  HookPoint = "after_tool_execution"

	OnRunStart HookPoint = "on_run_start"
	OnRunEnd   HookPoint = "on_run_end"
)

// Data keys set by the executor.
const (
	KeyArguments  = "arguments"
	KeyResult     = "result"
	KeyError      = "error"
	KeyDuration   = "duration"
	KeyIteration  = "iteration"
	KeyIterations = "iterations"
	KeyToolCalls  = "tool_calls"
)

// HookData carries context-specific information for hooks
type HookData struct {
	Point     HookPoint
	Timestamp time.Time
	ToolName  string
	Data      map[string]any
}

func NewHookData(point HookPoint, toolName string) *HookData {
	return &HookData{
		Point:     point,
		Timestamp: time.Now(),
		ToolName:  toolName,
		Data:      make(map[string]any),
	}
}

// Set sets a data field and returns d for chaining
func (d *HookData) Set(key string, value any) *HookData {
	d.Data[key] = value
	return d
}

func (d *HookData) Get(key string) any {
	return d.Data[key]
}

func (d *HookData) GetString(key string) string {
	if v, ok := d.Data[key].(string); ok {
		return v
	}
	return ""
}

// Feedback is returned by handlers to control execution flow
type Feedback struct {
	Allow   bool
	Message string
}

func AllowFeedback() *Feedback {
	return &Feedback{Allow: true}
}

func DenyFeedback(message string) *Feedback {
	return &Feedback{Allow: false, Message: message}
}

// Handler is the interface for hook handlers
type Handler interface {
	Name() string

	// Points returns which hook points this handler listens to
	Points() []HookPoint

	// Handle processes the hook event and returns feedback
	Handle(ctx context.Context, data *HookData) (*Feedback, error)

	// Priority orders handlers; higher runs earlier
	Priority() int
}
