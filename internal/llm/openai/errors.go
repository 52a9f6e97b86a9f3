package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"sleuth/internal/llm"
)

var contextTooLongHints = []string{
	"context length",
	"context_length",
	"reduce the length",
	"too many tokens",
}

var rateLimitHints = []string{
	"too many requests",
	"rate limit",
	"quota exceeded",
}

// classifyError maps a go-openai failure onto the provider error kinds. This
// is the only place vendor status codes and message text are inspected.
func classifyError(err error) *llm.ProviderError {
	perr := &llm.ProviderError{Kind: llm.KindOther, Message: err.Error(), Err: err}

	if errors.Is(err, context.DeadlineExceeded) {
		perr.Kind = llm.KindTimeout
		return perr
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		perr.StatusCode = apiErr.HTTPStatusCode
		perr.Message = apiErr.Message
		if apiErr.Code != nil {
			perr.Code = fmt.Sprint(apiErr.Code)
		}
	case errors.As(err, &reqErr):
		perr.StatusCode = reqErr.HTTPStatusCode
	}

	text := strings.ToLower(perr.Message)
	switch {
	case perr.Code == "context_length_exceeded" || containsAny(text, contextTooLongHints):
		perr.Kind = llm.KindContextTooLong
	case perr.StatusCode == http.StatusTooManyRequests ||
		perr.Code == "rate_limit_exceeded" ||
		containsAny(text, rateLimitHints):
		perr.Kind = llm.KindRateLimited
	}
	return perr
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
