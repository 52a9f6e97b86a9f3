package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"sleuth/internal/tool"
)

// toolCaller is the part of Client the adapter needs
type toolCaller interface {
	Name() string
	CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error)
}

// ToolAdapter exposes one MCP tool through the tool.Tool interface
type ToolAdapter struct {
	caller         toolCaller
	mcpTool        *mcp.Tool
	namespacedName string // e.g., "filesystem_read_file"
	schema         *tool.Schema
}

// NewToolAdapter creates an adapter for an MCP tool. Input schemas sleuth
// cannot represent fall back to an unconstrained object.
func NewToolAdapter(caller toolCaller, mcpTool *mcp.Tool) *ToolAdapter {
	return &ToolAdapter{
		caller:         caller,
		mcpTool:        mcpTool,
		namespacedName: fmt.Sprintf("%s_%s", caller.Name(), mcpTool.Name),
		schema:         convertSchema(mcpTool.InputSchema),
	}
}

// Name returns the namespaced tool name (server_tool)
func (a *ToolAdapter) Name() string {
	return a.namespacedName
}

func (a *ToolAdapter) Description() string {
	desc := a.mcpTool.Description
	if desc == "" {
		desc = fmt.Sprintf("MCP tool from %s server", a.caller.Name())
	}
	return fmt.Sprintf("%s\n\n[MCP Server: %s]", desc, a.caller.Name())
}

func (a *ToolAdapter) Parameters() *tool.Schema {
	return a.schema
}

// Execute forwards the call to the server. A result flagged IsError is
// returned as an error so the executor reports it as a failed call.
func (a *ToolAdapter) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	env.Log().Debug("MCP call %s on server %s", a.mcpTool.Name, a.caller.Name())

	result, err := a.caller.CallTool(ctx, a.mcpTool.Name, args)
	if err != nil {
		return nil, fmt.Errorf("MCP tool execution failed: %w", err)
	}

	if result.IsError {
		return nil, errors.New(formatError(result))
	}

	if text := formatContent(result.Content); text != "" {
		return text, nil
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	return "", nil
}

func convertSchema(input any) *tool.Schema {
	fallback := tool.Object(map[string]*tool.Schema{})
	if input == nil {
		return fallback
	}

	m, ok := input.(map[string]any)
	if !ok {
		data, err := json.Marshal(input)
		if err != nil {
			return fallback
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return fallback
		}
	}

	schema, err := tool.SchemaFromMap(m)
	if err != nil {
		return fallback
	}
	return schema
}

// formatContent converts MCP content array to string
func formatContent(content []mcp.Content) string {
	var parts []string

	for _, item := range content {
		switch c := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)

		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s]", c.MIMEType))

		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[Audio: %s]", c.MIMEType))

		default:
			data, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, fmt.Sprintf("[Unknown content type: %T]", item))
			} else {
				parts = append(parts, string(data))
			}
		}
	}

	return strings.Join(parts, "\n")
}

// formatError extracts error message from MCP result
func formatError(result *mcp.CallToolResult) string {
	if len(result.Content) > 0 {
		return formatContent(result.Content)
	}
	return "MCP tool returned an error"
}
