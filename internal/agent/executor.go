package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sleuth/internal/hook"
	"sleuth/internal/llm"
	"sleuth/internal/logger"
	"sleuth/internal/tool"
)

// EmptyOutputPlaceholder stands in for a successful tool result with no
// content.
const EmptyOutputPlaceholder = "(Tool executed successfully with no output)"

// ErrToolDenied marks a tool call blocked by a BeforeToolExecution hook.
var ErrToolDenied = errors.New("tool execution denied")

// Executor drives the loop for one registry. It holds no per-run state, so
// concurrent Runs are safe as long as the tools themselves are.
type Executor struct {
	invoker  *llm.Invoker
	registry *tool.Registry
	config   Config
	hooks    *hook.Manager
	log      *logger.Logger
}

func NewExecutor(invoker *llm.Invoker, registry *tool.Registry, cfg *Config) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return &Executor{
		invoker:  invoker,
		registry: registry,
		config:   c,
		log:      logger.Discard(),
	}
}

func (e *Executor) SetHookManager(m *hook.Manager) {
	e.hooks = m
}

func (e *Executor) SetLogger(log *logger.Logger) {
	if log != nil {
		e.log = log
	}
}

func (e *Executor) Config() Config {
	return e.config
}

func (e *Executor) Registry() *tool.Registry {
	return e.registry
}

// Run executes the loop over a copy of messages. Tool failures never end the
// run; they are written into the conversation for the model to react to.
// Only provider failures, and caller errors such as a required tool choice
// with no tools, are returned.
func (e *Executor) Run(ctx context.Context, messages []llm.Message) (*ExecutionResult, error) {
	run := newRunState(messages, e.config.MaxIterations)
	e.log.RunStart(task(messages))
	e.hooks.Notify(ctx, hook.NewHookData(hook.OnRunStart, ""))

	tools := e.registry.ToWireFormat()
	opts := e.invokeOptions(run, tools, e.config.ToolChoice)

	for run.budgetLeft() {
		run.iteration++
		e.log.Iteration(run.iteration, run.maxIterations)

		resp, err := e.invoker.Invoke(ctx, run.messages, opts)
		if err != nil {
			e.log.Error("Iteration %d failed: %v", run.iteration, err)
			return nil, fmt.Errorf("iteration %d: %w", run.iteration, err)
		}

		msg := resp.Message
		if msg.Content != "" {
			e.log.AgentResponse(msg.Content)
		}

		if !msg.HasToolCalls() {
			run.append(llm.AssistantMessage(msg.Content))
			return e.finish(ctx, run, false), nil
		}

		run.append(llm.Message{
			Role:      llm.RoleAssistant,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
		for _, call := range msg.ToolCalls {
			e.dispatch(ctx, run, call)
		}
	}

	return e.synthesize(ctx, run)
}

// synthesize makes the single tool-less call after the budget is spent.
func (e *Executor) synthesize(ctx context.Context, run *runState) (*ExecutionResult, error) {
	e.log.Warn("Reached max iterations (%d), requesting final answer", run.maxIterations)
	run.append(llm.UserMessage(ForcedSynthesisPrompt))

	resp, err := e.invoker.Invoke(ctx, run.messages, e.invokeOptions(run, nil, llm.ToolChoice{}))
	if err != nil {
		e.log.Error("Final synthesis failed: %v", err)
		return nil, fmt.Errorf("final synthesis: %w", err)
	}
	if resp.Message.Content != "" {
		e.log.AgentResponse(resp.Message.Content)
	}

	// Any tool calls in this reply are ignored.
	run.append(llm.AssistantMessage(resp.Message.Content))
	return e.finish(ctx, run, true), nil
}

func (e *Executor) dispatch(ctx context.Context, run *runState, call *llm.ToolCall) {
	var name, rawArgs string
	if call.Function != nil {
		name, rawArgs = call.Function.Name, call.Function.Arguments
	}
	e.log.ToolCall(name, rawArgs)

	start := time.Now()
	result, err := e.execute(ctx, run.iteration, name, rawArgs)
	duration := time.Since(start)

	var content string
	if err != nil {
		content = failureMessage(name, err)
		e.log.ToolResult(name, false, err.Error(), duration)
	} else {
		content = formatResult(result)
		e.log.ToolResult(name, true, content, duration)
	}
	run.recordMetric(name, start, duration, err)
	run.append(llm.ToolResultMessage(call.ID, name, content))

	data := hook.NewHookData(hook.AfterToolExecution, name).
		Set(hook.KeyArguments, rawArgs).
		Set(hook.KeyResult, content).
		Set(hook.KeyDuration, duration).
		Set(hook.KeyIteration, run.iteration)
	if err != nil {
		data.Set(hook.KeyError, err)
	}
	e.hooks.Notify(ctx, data)
}

func (e *Executor) execute(ctx context.Context, iteration int, name, rawArgs string) (any, error) {
	args, err := parseArguments(rawArgs)
	if err != nil {
		return nil, &tool.ToolExecutionError{Name: name, Err: err}
	}

	feedback, err := e.hooks.Trigger(ctx, hook.NewHookData(hook.BeforeToolExecution, name).
		Set(hook.KeyArguments, rawArgs).
		Set(hook.KeyIteration, iteration))
	if err != nil {
		return nil, err
	}
	if !feedback.Allow {
		return nil, fmt.Errorf("%w: %s", ErrToolDenied, feedback.Message)
	}

	if e.config.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ToolTimeout)
		defer cancel()
	}
	return e.registry.Execute(ctx, name, args)
}

func (e *Executor) finish(ctx context.Context, run *runState, forced bool) *ExecutionResult {
	e.log.RunEnd(time.Since(run.startTime), run.iteration, run.toolCallsExecuted, forced)
	e.hooks.Notify(ctx, hook.NewHookData(hook.OnRunEnd, "").
		Set(hook.KeyIterations, run.iteration).
		Set(hook.KeyToolCalls, run.toolCallsExecuted))
	return run.result(forced)
}

// invokeOptions builds the per-call options. A reduction performed by the
// invoker replaces the run's conversation so later calls start from it.
func (e *Executor) invokeOptions(run *runState, tools []*llm.ToolDefinition, choice llm.ToolChoice) llm.InvokeOptions {
	opts := llm.InvokeOptions{
		Model:       e.config.Model,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		Tools:       tools,
		ToolChoice:  choice,
		Reduce:      e.config.Reduce,
	}
	if opts.Reduce != nil {
		opts.OnReduce = func(messages []llm.Message) {
			e.log.Debug("Continuing run with reduced conversation (%d -> %d messages)", len(run.messages), len(messages))
			run.messages = messages
		}
	}
	return opts
}

// parseArguments decodes the model's argument string. Blank input is an
// empty object.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", tool.ErrInvalidArguments, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func failureMessage(name string, err error) string {
	cause := err
	var execErr *tool.ToolExecutionError
	if errors.As(err, &execErr) {
		cause = execErr.Err
	}
	return fmt.Sprintf("Error: tool %q failed: %v", name, cause)
}

// formatResult renders a tool result as message content: strings as-is,
// everything else as JSON.
func formatResult(result any) string {
	var content string
	switch v := result.(type) {
	case nil:
	case string:
		content = v
	case []byte:
		content = string(v)
	case fmt.Stringer:
		content = v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			content = fmt.Sprintf("%v", v)
		} else {
			content = string(data)
		}
	}
	if strings.TrimSpace(content) == "" {
		return EmptyOutputPlaceholder
	}
	return content
}
