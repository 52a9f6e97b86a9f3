package llm

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes a Client reports.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindContextTooLong ErrorKind = "context_too_long"
	KindTimeout        ErrorKind = "timeout"
	KindOther          ErrorKind = "other"
)

var (
	ErrRateLimited    = errors.New("provider rate limit exceeded")
	ErrContextTooLong = errors.New("provider context length exceeded")
	ErrTimeout        = errors.New("provider request timed out")

	// ErrToolChoiceWithoutTools is returned when a request pins or requires a
	// tool but carries no tool list.
	ErrToolChoiceWithoutTools = errors.New("tool choice requires at least one tool")
)

// ProviderError is a classified failure of a completion call.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a ProviderError against the kind sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrContextTooLong:
		return e.Kind == KindContextTooLong
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// KindOf returns the classification of err. Errors that are not
// ProviderErrors are KindOther.
func KindOf(err error) ErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindOther
}

// RetryError wraps the last classified error once the invoker gives up.
type RetryError struct {
	Attempts int
	Kind     ErrorKind
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("completion failed after %d attempt(s) [%s]: %v", e.Attempts, e.Kind, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}
