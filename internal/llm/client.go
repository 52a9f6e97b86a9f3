package llm

import "context"

// Client performs a single request/response completion call. Implementations
// report failures as *ProviderError so callers can classify them without
// inspecting vendor specific error text.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Provider() string
	Model() string
}

type ChatRequest struct {
	Model       string            `json:"model,omitempty"`
	Messages    []Message         `json:"messages"`
	Tools       []*ToolDefinition `json:"tools,omitempty"`
	ToolChoice  ToolChoice        `json:"tool_choice,omitzero"`
	Temperature float32           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Message    Message    `json:"message"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

type ToolDefinition struct {
	Type     string       `json:"type"`
	Function *FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	// ToolChoiceFunction pins the model to the tool named in ToolChoice.Name.
	ToolChoiceFunction ToolChoiceMode = "function"
)

// ToolChoice is the tool selection policy sent with a request. The zero value
// leaves the decision to the provider.
type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode,omitempty"`
	Name string         `json:"name,omitempty"`
}

func (c ToolChoice) IsZero() bool {
	return c.Mode == ""
}

// NeedsTools reports whether the policy is meaningless without tools.
func (c ToolChoice) NeedsTools() bool {
	return c.Mode == ToolChoiceRequired || c.Mode == ToolChoiceFunction
}

// ParseToolChoice accepts "auto", "none", "required" or the name of a tool to
// pin. An empty string yields the zero ToolChoice.
func ParseToolChoice(s string) ToolChoice {
	switch ToolChoiceMode(s) {
	case "":
		return ToolChoice{}
	case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
		return ToolChoice{Mode: ToolChoiceMode(s)}
	default:
		return ToolChoice{Mode: ToolChoiceFunction, Name: s}
	}
}
