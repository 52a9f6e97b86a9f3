package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sleuth/internal/tool"
)

type ReadTool struct{}

func NewReadTool() *ReadTool {
	return &ReadTool{}
}

func (t *ReadTool) Name() string {
	return "read"
}

func (t *ReadTool) Description() string {
	return "Read the contents of a file, optionally restricted to a line range"
}

func (t *ReadTool) BestPractices() string {
	return `**read**: prefer a line range (from/to) for large files; paths are relative to the repository root.`
}

func (t *ReadTool) Parameters() *tool.Schema {
	return tool.Object(map[string]*tool.Schema{
		"file_path": tool.String("Path to the file to read"),
		"from":      tool.Integer("First line to return, 1-based (default: 1)"),
		"to":        tool.Integer("Last line to return, inclusive (default: end of file)"),
	}, "file_path")
}

func (t *ReadTool) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	path := resolvePath(env, stringArg(args, "file_path"))

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	from, to := intArg(args, "from"), intArg(args, "to")
	if from <= 0 && to <= 0 {
		return string(content), nil
	}

	lines := strings.SplitAfter(string(content), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return "", nil
	}
	if from <= 0 {
		from = 1
	}
	if to <= 0 || to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return nil, fmt.Errorf("invalid line range %d-%d (file has %d lines)", from, to, len(lines))
	}

	return strings.Join(lines[from-1:to], ""), nil
}
