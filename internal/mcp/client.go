package mcp

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"sleuth/internal/config"
)

// Client wraps the official MCP SDK client and session
type Client struct {
	name    string
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

// NewClient starts the configured stdio server and lists its tools
func NewClient(ctx context.Context, cfg config.MCPServerConfig) (*Client, error) {
	cmd := exec.Command(cfg.Command, config.ExpandEnvSlice(cfg.Args)...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), formatEnvVars(config.ExpandEnvMap(cfg.Env))...)
	}

	return Connect(ctx, cfg.Name, &mcp.CommandTransport{Command: cmd})
}

// Connect opens a session over transport and caches the server's tools
func Connect(ctx context.Context, name string, transport mcp.Transport) (*Client, error) {
	impl := &mcp.Implementation{
		Name:    "sleuth",
		Version: "1.0.0",
	}
	client := mcp.NewClient(impl, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}

	var tools []*mcp.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		tools = append(tools, tool)
	}

	return &Client{
		name:    name,
		client:  client,
		session: session,
		tools:   tools,
	}, nil
}

// formatEnvVars converts env map to KEY=VALUE slice
func formatEnvVars(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for key, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	return result
}

func (c *Client) Name() string {
	return c.name
}

// Tools returns the tool list fetched at connect time
func (c *Client) Tools() []*mcp.Tool {
	return c.tools
}

func (c *Client) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("call tool request failed: %w", err)
	}
	return result, nil
}

// Close shuts down the session and, for stdio servers, the process
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
