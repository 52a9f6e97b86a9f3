// Package agent runs the tool-calling loop: it asks the model for the next
// step, dispatches the tools the model requests and feeds their results back
// until the model answers or the iteration budget runs out.
package agent

import (
	"time"

	"sleuth/internal/llm"
)

const DefaultMaxIterations = 10

// ForcedSynthesisPrompt is appended when the iteration budget is exhausted
// before the model produced a final answer.
const ForcedSynthesisPrompt = "You have reached the maximum number of tool calls for this task. " +
	"Do not request any more tools. Using only the information gathered so far, " +
	"provide your final answer now."

type Config struct {
	Model         string
	Temperature   float32
	MaxTokens     int
	MaxIterations int
	ToolChoice    llm.ToolChoice
	// ToolTimeout bounds a single tool execution. Zero means no limit.
	ToolTimeout time.Duration
	// Reduce, when set, lets the invoker retry context length failures.
	Reduce llm.Reducer
}

func DefaultConfig() *Config {
	return &Config{
		Temperature:   0.2,
		MaxTokens:     4096,
		MaxIterations: DefaultMaxIterations,
		ToolChoice:    llm.ToolChoice{Mode: llm.ToolChoiceAuto},
	}
}

// ToolExecutionMetric records one tool dispatch.
type ToolExecutionMetric struct {
	Name           string    `json:"name"`
	Iteration      int       `json:"iteration"`
	Success        bool      `json:"success"`
	DurationMillis int64     `json:"durationMillis"`
	Timestamp      time.Time `json:"timestamp"`
	Error          string    `json:"error,omitempty"`
}

// ExecutionResult is the outcome of a run. Its slices are copies owned by
// the caller.
type ExecutionResult struct {
	FinalMessage        string                `json:"finalMessage"`
	Iterations          int                   `json:"iterations"`
	ToolCallsExecuted   int                   `json:"toolCallsExecuted"`
	ConversationHistory []llm.Message         `json:"conversationHistory"`
	ToolMetrics         []ToolExecutionMetric `json:"toolMetrics"`
	// ForcedSynthesis is true when the answer came from the tool-less call
	// made after the budget ran out.
	ForcedSynthesis bool `json:"forcedSynthesis"`
}

// FailedToolCalls counts failed dispatches.
func (r *ExecutionResult) FailedToolCalls() int {
	n := 0
	for _, m := range r.ToolMetrics {
		if !m.Success {
			n++
		}
	}
	return n
}
