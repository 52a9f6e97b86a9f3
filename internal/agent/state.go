package agent

import (
	"slices"
	"time"

	"sleuth/internal/llm"
)

// runState is everything one Run owns. It never outlives the call; the
// result handed back is a copy.
type runState struct {
	startTime         time.Time
	iteration         int
	maxIterations     int
	toolCallsExecuted int
	messages          []llm.Message
	metrics           []ToolExecutionMetric
}

func newRunState(seed []llm.Message, maxIterations int) *runState {
	return &runState{
		startTime:     time.Now(),
		maxIterations: maxIterations,
		messages:      slices.Clone(seed),
	}
}

func (s *runState) append(msg llm.Message) {
	s.messages = append(s.messages, msg)
}

func (s *runState) budgetLeft() bool {
	return s.iteration < s.maxIterations
}

func (s *runState) recordMetric(name string, start time.Time, duration time.Duration, err error) {
	metric := ToolExecutionMetric{
		Name:           name,
		Iteration:      s.iteration,
		Success:        err == nil,
		DurationMillis: duration.Milliseconds(),
		Timestamp:      start.UTC(),
	}
	if err != nil {
		metric.Error = err.Error()
	} else {
		s.toolCallsExecuted++
	}
	s.metrics = append(s.metrics, metric)
}

func (s *runState) result(forced bool) *ExecutionResult {
	final := ""
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == llm.RoleAssistant {
			final = s.messages[i].Content
			break
		}
	}

	return &ExecutionResult{
		FinalMessage:        final,
		Iterations:          s.iteration,
		ToolCallsExecuted:   s.toolCallsExecuted,
		ConversationHistory: slices.Clone(s.messages),
		ToolMetrics:         slices.Clone(s.metrics),
		ForcedSynthesis:     forced,
	}
}

// task returns the first user message, used for log banners.
func task(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role == llm.RoleUser {
			return m.Content
		}
	}
	return ""
}
