package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel           = "gpt-4o-mini"
	DefaultMaxOutputTokens = 4096
	DefaultTemperature     = 0.2
	DefaultTimeout         = 5 * time.Minute
	DefaultToolChoice      = "auto"
	DefaultProfile         = "general"
	DefaultLogLevel        = "info"
)

// Config represents the complete sleuth configuration
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Agent    AgentConfig    `yaml:"agent"`
	Debug    DebugConfig    `yaml:"debug"`
	Hooks    HooksConfig    `yaml:"hooks"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// ProviderConfig selects the OpenAI-compatible completion endpoint
type ProviderConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"` // ${VAR} supported, falls back to OPENAI_API_KEY
	Model           string        `yaml:"model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Temperature     *float32      `yaml:"temperature"` // nil means DefaultTemperature
	Timeout         time.Duration `yaml:"timeout"`     // per completion call
}

// AgentConfig controls the tool-calling loop
type AgentConfig struct {
	MaxIterations int           `yaml:"max_iterations"` // 0 lets the profile decide
	ToolChoice    string        `yaml:"tool_choice"`    // auto, none, required or a tool name
	ToolTimeout   time.Duration `yaml:"tool_timeout"`   // 0 disables
	Profile       string        `yaml:"profile"`
	WorkingDir    string        `yaml:"working_dir"`
	// KeepMessages enables conversation reduction on context length errors
	// when greater than zero.
	KeepMessages int `yaml:"keep_messages"`
}

// DebugConfig contains diagnostics settings
type DebugConfig struct {
	// CaptureDir enables raw request/response capture when set
	CaptureDir string `yaml:"capture_dir"`
	LogLevel   string `yaml:"log_level"`
}

// HooksConfig contains hook-related settings
type HooksConfig struct {
	// ToolConfirm enables user confirmation before specified tools
	ToolConfirm []string `yaml:"tool_confirm"`
}

// MCPConfig contains MCP-specific settings
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig defines a single MCP server
type MCPServerConfig struct {
	Name      string            `yaml:"name"`      // Unique server identifier
	Transport string            `yaml:"transport"` // "stdio" (only supported initially)
	Command   string            `yaml:"command"`   // Executable to run
	Args      []string          `yaml:"args"`      // Command arguments
	Env       map[string]string `yaml:"env"`       // Environment variables with ${VAR} support
	Disabled  bool              `yaml:"disabled"`  // Skip this server if true
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands environment references and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.Provider.APIKey = ExpandEnv(cfg.Provider.APIKey)
	cfg.Provider.BaseURL = ExpandEnv(cfg.Provider.BaseURL)
	cfg.Debug.CaptureDir = ExpandEnv(cfg.Debug.CaptureDir)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations
// Checks: ./sleuth.yaml, ./configs/sleuth.yaml, ~/.config/sleuth/sleuth.yaml, /etc/sleuth/sleuth.yaml
func LoadWithDefaults() (*Config, string, error) {
	for _, loc := range searchPath() {
		if _, err := os.Stat(loc); err == nil {
			cfg, err := Load(loc)
			return cfg, loc, err
		}
	}

	// No config found - defaults only (not an error)
	return Default(), "", nil
}

func searchPath() []string {
	locations := []string{
		"./sleuth.yaml",
		"./configs/sleuth.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "sleuth", "sleuth.yaml"))
	}

	return append(locations, "/etc/sleuth/sleuth.yaml")
}

func (c *Config) applyDefaults() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModel
	}
	if c.Provider.MaxOutputTokens == 0 {
		c.Provider.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Provider.Temperature == nil {
		t := float32(DefaultTemperature)
		c.Provider.Temperature = &t
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultTimeout
	}
	if c.Agent.ToolChoice == "" {
		c.Agent.ToolChoice = DefaultToolChoice
	}
	if c.Agent.Profile == "" {
		c.Agent.Profile = DefaultProfile
	}
	if c.Agent.WorkingDir == "" {
		c.Agent.WorkingDir = "."
	}
	if c.Debug.LogLevel == "" {
		c.Debug.LogLevel = DefaultLogLevel
	}
	for i := range c.MCP.Servers {
		if c.MCP.Servers[i].Transport == "" {
			c.MCP.Servers[i].Transport = "stdio"
		}
	}
}

// Validate checks config correctness
func (c *Config) Validate() error {
	if c.Provider.MaxOutputTokens < 0 {
		return fmt.Errorf("provider.max_output_tokens must not be negative")
	}
	if t := c.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("provider.temperature %.2f out of range [0, 2]", *t)
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}
	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("agent.max_iterations must not be negative")
	}
	if c.Agent.ToolTimeout < 0 {
		return fmt.Errorf("agent.tool_timeout must not be negative")
	}
	if c.Agent.KeepMessages < 0 {
		return fmt.Errorf("agent.keep_messages must not be negative")
	}
	switch c.Debug.LogLevel {
	case "", "debug", "info", "warn", "tool", "agent", "error":
	default:
		return fmt.Errorf("unknown debug.log_level %q", c.Debug.LogLevel)
	}

	// Check for duplicate server names
	names := make(map[string]bool)
	for i, server := range c.MCP.Servers {
		if server.Name == "" {
			return fmt.Errorf("server #%d: name cannot be empty", i+1)
		}

		if names[server.Name] {
			return fmt.Errorf("duplicate server name: %s", server.Name)
		}
		names[server.Name] = true

		if err := server.Validate(); err != nil {
			return fmt.Errorf("server %s: %w", server.Name, err)
		}
	}

	return nil
}

// Validate checks a single server config
func (s *MCPServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Server names prefix tool names, which must match ^[a-zA-Z0-9_-]+$
	for _, ch := range s.Name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return fmt.Errorf("server name '%s' contains invalid character '%c' (only alphanumeric, underscore, and hyphen allowed)", s.Name, ch)
		}
	}

	if s.Transport == "" {
		return fmt.Errorf("transport is required")
	}

	if s.Transport != "stdio" {
		return fmt.Errorf("unsupported transport: %s (only 'stdio' is supported)", s.Transport)
	}

	if s.Command == "" {
		return fmt.Errorf("command is required")
	}

	return nil
}
