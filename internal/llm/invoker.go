package llm

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"sleuth/internal/logger"
)

// Reducer shrinks a conversation that no longer fits the model context.
// It returns the reduced list and true, or false when nothing can be removed.
// The input must not be modified.
type Reducer func(messages []Message) ([]Message, bool)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// CaptureSink persists debug payloads under a name.
type CaptureSink interface {
	Capture(name string, payload any) error
}

// RetryPolicy bounds how often and how long the invoker waits between
// attempts. Backoff doubles per attempt up to the kind's cap.
type RetryPolicy struct {
	MaxAttempts    int
	TokenLimitBase time.Duration
	TokenLimitMax  time.Duration
	RateLimitBase  time.Duration
	RateLimitMax   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		TokenLimitBase: time.Second,
		TokenLimitMax:  10 * time.Second,
		RateLimitBase:  2 * time.Second,
		RateLimitMax:   15 * time.Second,
	}
}

// Backoff returns the delay before retrying after the given 1-based attempt
// failed with kind. Non-retryable kinds get zero.
func (p RetryPolicy) Backoff(kind ErrorKind, attempt int) time.Duration {
	var base, limit time.Duration
	switch kind {
	case KindContextTooLong:
		base, limit = p.TokenLimitBase, p.TokenLimitMax
	case KindRateLimited:
		base, limit = p.RateLimitBase, p.RateLimitMax
	default:
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt && d < limit; i++ {
		d *= 2
	}
	return min(d, limit)
}

type InvokeOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Tools       []*ToolDefinition
	ToolChoice  ToolChoice
	// Reduce enables retrying context length failures.
	Reduce Reducer
	// OnReduce receives the reduced conversation so the caller can continue
	// from it instead of hitting the same limit on its next call.
	OnReduce func(messages []Message)
}

// Invoker wraps a Client with failure classification and retries. It keeps no
// per-call state, so one Invoker can serve concurrent runs.
type Invoker struct {
	client  Client
	policy  RetryPolicy
	sleep   SleepFunc
	capture CaptureSink
	log     *logger.Logger
	seq     atomic.Int64
}

func NewInvoker(client Client) *Invoker {
	return &Invoker{
		client: client,
		policy: DefaultRetryPolicy(),
		sleep:  sleepContext,
		log:    logger.Discard(),
	}
}

func (i *Invoker) SetRetryPolicy(p RetryPolicy) {
	i.policy = p
}

func (i *Invoker) SetSleep(fn SleepFunc) {
	i.sleep = fn
}

// SetCapture enables debug capture of requests and responses. A nil sink
// disables it.
func (i *Invoker) SetCapture(sink CaptureSink) {
	i.capture = sink
}

func (i *Invoker) SetLogger(log *logger.Logger) {
	if log != nil {
		i.log = log
	}
}

func (i *Invoker) Client() Client {
	return i.client
}

// Invoke sends messages to the provider. Rate limits are retried with
// backoff; context length failures are retried only when opts.Reduce can
// shrink the conversation. Any other failure is returned at once. Returned
// provider failures are *RetryError values wrapping the classified error.
func (i *Invoker) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (*ChatResponse, error) {
	req, err := buildRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	attempts := max(i.policy.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := i.call(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := KindOf(err)
		switch kind {
		case KindRateLimited:
		case KindContextTooLong:
			if opts.Reduce == nil {
				return nil, &RetryError{Attempts: attempt, Kind: kind, Err: err}
			}
			if attempt < attempts {
				reduced, ok := opts.Reduce(req.Messages)
				if !ok {
					return nil, &RetryError{Attempts: attempt, Kind: kind, Err: err}
				}
				i.log.Debug("Reduced conversation from %d to %d messages", len(req.Messages), len(reduced))
				req.Messages = reduced
				if opts.OnReduce != nil {
					opts.OnReduce(slices.Clone(reduced))
				}
			}
		default:
			return nil, &RetryError{Attempts: attempt, Kind: kind, Err: err}
		}

		if attempt == attempts {
			break
		}

		delay := i.policy.Backoff(kind, attempt)
		i.log.Warn("Completion attempt %d/%d failed (%s), retrying in %s", attempt, attempts, kind, delay)
		if err := i.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry backoff interrupted: %w", err)
		}
	}

	return nil, &RetryError{Attempts: attempts, Kind: KindOf(lastErr), Err: lastErr}
}

func (i *Invoker) call(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	seq := i.seq.Add(1)
	i.capturePayload(fmt.Sprintf("%04d-request", seq), req)

	resp, err := i.client.Chat(ctx, req)
	if err != nil {
		i.capturePayload(fmt.Sprintf("%04d-error", seq), map[string]any{
			"kind":  KindOf(err),
			"error": err.Error(),
		})
		return nil, err
	}

	i.capturePayload(fmt.Sprintf("%04d-response", seq), resp)
	return resp, nil
}

func (i *Invoker) capturePayload(name string, payload any) {
	if i.capture == nil {
		return
	}
	if err := i.capture.Capture(name, payload); err != nil {
		i.log.Debug("Debug capture %s skipped: %v", name, err)
	}
}

func buildRequest(messages []Message, opts InvokeOptions) (*ChatRequest, error) {
	choice := opts.ToolChoice
	if len(opts.Tools) == 0 {
		if choice.NeedsTools() {
			return nil, fmt.Errorf("%w (tool_choice=%s)", ErrToolChoiceWithoutTools, choice.Mode)
		}
		choice = ToolChoice{}
	}
	if choice.Mode == ToolChoiceFunction && choice.Name == "" {
		return nil, fmt.Errorf("tool choice %q needs a tool name", choice.Mode)
	}

	return &ChatRequest{
		Model:       opts.Model,
		Messages:    slices.Clone(messages),
		Tools:       opts.Tools,
		ToolChoice:  choice,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
