package builtin

import (
	"context"
	"strings"
	"testing"

	"sleuth/internal/tool"
)

func TestBashTool_SuccessWithOutput(t *testing.T) {
	bash := NewBashTool()

	result, err := bash.Execute(context.Background(), map[string]any{
		"command": "echo 'hello world'",
	}, &tool.Env{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.(string), "hello world") {
		t.Errorf("Expected output to contain 'hello world', got: %v", result)
	}
}

func TestBashTool_SuccessWithNoOutput(t *testing.T) {
	bash := NewBashTool()

	result, err := bash.Execute(context.Background(), map[string]any{
		"command": "true",
	}, &tool.Env{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Empty tool messages are rejected by providers
	if result != EmptyOutputPlaceholder {
		t.Errorf("Expected placeholder message, got: %v", result)
	}
}

func TestBashTool_RunsInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	bash := NewBashTool()

	result, err := bash.Execute(context.Background(), map[string]any{
		"command": "pwd",
	}, &tool.Env{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.(string), dir) {
		t.Errorf("Expected command to run in %s, got: %v", dir, result)
	}
}

func TestBashTool_Failure(t *testing.T) {
	bash := NewBashTool()

	_, err := bash.Execute(context.Background(), map[string]any{
		"command": "echo oops; exit 1",
	}, &tool.Env{})
	if err == nil {
		t.Fatal("Expected failure for 'exit 1' command")
	}

	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("Expected command output in error, got: %v", err)
	}
}

func TestBashTool_Timeout(t *testing.T) {
	bash := NewBashTool()

	_, err := bash.Execute(context.Background(), map[string]any{
		"command": "sleep 10",
		"timeout": 100.0,
	}, &tool.Env{})
	if err == nil {
		t.Fatal("Expected failure due to timeout")
	}

	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout error message, got: %v", err)
	}
}
