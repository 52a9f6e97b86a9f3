package agent

import (
	"fmt"
	"strings"

	"sleuth/internal/llm"
	"sleuth/internal/tool"
)

// Profile selects the tool set and prompt an executor runs with.
type Profile string

const (
	ProfileGeneral Profile = "general"
	ProfileExplore Profile = "explore"
)

type profileDef struct {
	// tools restricts the registry; nil keeps every registered tool.
	tools         []string
	maxIterations int
	prompt        string
}

var profiles = map[Profile]profileDef{
	ProfileGeneral: {
		prompt: `You are an investigation assistant working inside a local repository.
Use the available tools to gather facts before answering. Prefer reading
files over guessing, and stop calling tools once you can answer.`,
	},
	ProfileExplore: {
		tools:         []string{"read", "glob", "grep"},
		maxIterations: 15,
		prompt: `You are a read-only codebase explorer. Locate files with glob,
search their contents with grep and read the relevant parts. Never modify
anything. Answer with concrete file paths and line references.`,
	},
}

func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProfileGeneral, nil
	}
	if _, ok := profiles[p]; !ok {
		return "", fmt.Errorf("unknown profile %q (want %s or %s)", s, ProfileGeneral, ProfileExplore)
	}
	return p, nil
}

// SystemPrompt returns the profile's instructions followed by the best
// practices of the tools it may use.
func (p Profile) SystemPrompt(registry *tool.Registry) string {
	def := profiles[p]
	prompt := def.prompt
	if registry == nil {
		return prompt
	}
	if def.tools != nil {
		if sub, err := registry.Subset(def.tools...); err == nil {
			registry = sub
		}
	}
	if practices := registry.BestPractices(); practices != "" {
		prompt += "\n\n" + practices
	}
	return prompt
}

// NewProfileExecutor builds an executor restricted to the profile's tools.
// A nil cfg or a zero MaxIterations takes the profile's iteration budget.
func NewProfileExecutor(p Profile, invoker *llm.Invoker, registry *tool.Registry, cfg *Config) (*Executor, error) {
	def, ok := profiles[p]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", p)
	}

	if def.tools != nil {
		sub, err := registry.Subset(def.tools...)
		if err != nil {
			return nil, fmt.Errorf("%s profile: %w", p, err)
		}
		registry = sub
	}

	c := DefaultConfig()
	c.MaxIterations = 0
	if cfg != nil {
		*c = *cfg
	}
	if c.MaxIterations <= 0 && def.maxIterations > 0 {
		c.MaxIterations = def.maxIterations
	}
	return NewExecutor(invoker, registry, c), nil
}

// Messages seeds a conversation with the profile prompt and the task.
func (p Profile) Messages(registry *tool.Registry, task string) []llm.Message {
	return []llm.Message{
		llm.SystemMessage(p.SystemPrompt(registry)),
		llm.UserMessage(task),
	}
}
