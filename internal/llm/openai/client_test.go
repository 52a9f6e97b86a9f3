package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sleuth/internal/llm"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error","code":%q}}`, message, code)
}

func TestClient_ChatToolCalls(t *testing.T) {
	var body map[string]any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "grep", "arguments": "{\"pattern\":\"TODO\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	resp, err := client.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.UserMessage("find todos")},
		Tools: []*llm.ToolDefinition{{
			Type: "function",
			Function: &llm.FunctionDef{
				Name:       "grep",
				Parameters: map[string]any{"type": "object"},
			},
		}},
		ToolChoice: llm.ToolChoice{Mode: llm.ToolChoiceFunction, Name: "grep"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.StopReason != llm.StopReasonToolCalls || len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	call := resp.Message.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "grep" || call.Function.Arguments != `{"pattern":"TODO"}` {
		t.Errorf("unexpected tool call: %+v", call.Function)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if body["model"] != "test-model" {
		t.Errorf("model = %v", body["model"])
	}
	choice, ok := body["tool_choice"].(map[string]any)
	if !ok || choice["type"] != "function" {
		t.Fatalf("tool_choice = %v", body["tool_choice"])
	}
	if fn, _ := choice["function"].(map[string]any); fn["name"] != "grep" {
		t.Errorf("pinned tool = %v", choice["function"])
	}
}

func TestClient_ChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		message string
		want    llm.ErrorKind
	}{
		{"rate limit status", http.StatusTooManyRequests, "", "slow down", llm.KindRateLimited},
		{"rate limit code", http.StatusBadRequest, "rate_limit_exceeded", "try later", llm.KindRateLimited},
		{"context length", http.StatusBadRequest, "context_length_exceeded", "This model's maximum context length is 8192 tokens", llm.KindContextTooLong},
		{"reduce the length", http.StatusBadRequest, "", "Please reduce the length of the messages.", llm.KindContextTooLong},
		{"auth", http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided", llm.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, tt.code, tt.message)
			})

			_, err := client.Chat(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{llm.UserMessage("hi")},
			})

			var perr *llm.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Kind != tt.want {
				t.Errorf("kind = %s, want %s", perr.Kind, tt.want)
			}
			if perr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", perr.StatusCode, tt.status)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "m", Timeout: 20 * time.Millisecond})
	_, err := client.Chat(context.Background(), &llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("hi")}})
	if !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want llm.ErrorKind
	}{
		{"plain", errors.New("boom"), llm.KindOther},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), llm.KindTimeout},
		{"quota text", errors.New("Quota exceeded for this month"), llm.KindRateLimited},
		{"too many requests text", errors.New("429 Too Many Requests"), llm.KindRateLimited},
		{"too many tokens text", errors.New("too many tokens in prompt"), llm.KindContextTooLong},
		{"request error 429", &openai.RequestError{HTTPStatusCode: 429, Err: errors.New("bad body")}, llm.KindRateLimited},
		{"api error code", &openai.APIError{Code: "rate_limit_exceeded", Message: "x", HTTPStatusCode: 400}, llm.KindRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err).Kind; got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConvertToolChoice(t *testing.T) {
	if got := convertToolChoice(llm.ToolChoice{}); got != nil {
		t.Errorf("zero choice = %v, want nil", got)
	}
	if got := convertToolChoice(llm.ToolChoice{Mode: llm.ToolChoiceRequired}); got != "required" {
		t.Errorf("required = %v", got)
	}
	got, ok := convertToolChoice(llm.ToolChoice{Mode: llm.ToolChoiceFunction, Name: "read"}).(openai.ToolChoice)
	if !ok || got.Function.Name != "read" {
		t.Errorf("function choice = %+v", got)
	}
}

func TestConvertMessages(t *testing.T) {
	msgs := []llm.Message{
		llm.SystemMessage("sys"),
		{Role: llm.RoleAssistant, ToolCalls: []*llm.ToolCall{{
			ID: "c1", Type: "function", Function: &llm.FunctionCall{Name: "read", Arguments: "{}"},
		}}},
		llm.ToolResultMessage("c1", "read", "contents"),
	}

	out := convertMessages(msgs)
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if len(out[1].ToolCalls) != 1 || out[1].ToolCalls[0].Function.Name != "read" {
		t.Errorf("tool calls not converted: %+v", out[1].ToolCalls)
	}
	if out[2].ToolCallID != "c1" || out[2].Role != "tool" {
		t.Errorf("tool result not linked: %+v", out[2])
	}
}
