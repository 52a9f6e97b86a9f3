package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sleuth/internal/tool"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte("package x\n"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
	return dir
}

func TestGlobTool_SimplePattern(t *testing.T) {
	dir := writeTree(t, "main.go", "README.md", "internal/x.go")
	glob := NewGlobTool()

	result, err := glob.Execute(context.Background(), map[string]any{
		"pattern": "*.go",
	}, &tool.Env{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	res := result.(*GlobResult)
	if res.Count != 1 || res.Files[0] != "main.go" {
		t.Errorf("Expected only main.go, got %v", res.Files)
	}
}

func TestGlobTool_RecursivePattern(t *testing.T) {
	dir := writeTree(t, "main.go", "internal/x.go", "internal/deep/y.go", "docs/z.md", ".git/config.go")
	glob := NewGlobTool()

	result, err := glob.Execute(context.Background(), map[string]any{
		"pattern": "**/*.go",
	}, &tool.Env{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	res := result.(*GlobResult)
	want := []string{"internal/deep/y.go", "internal/x.go", "main.go"}
	if res.Count != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Files)
	}
	for i, f := range want {
		if filepath.ToSlash(res.Files[i]) != f {
			t.Errorf("Expected %s at %d, got %s", f, i, res.Files[i])
		}
	}
}

func TestGlobTool_NoMatches(t *testing.T) {
	dir := writeTree(t, "main.go")
	glob := NewGlobTool()

	result, err := glob.Execute(context.Background(), map[string]any{
		"pattern": "*.rs",
	}, &tool.Env{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	res := result.(*GlobResult)
	if res.Count != 0 || res.Files == nil {
		t.Errorf("Expected an empty, non-nil file list, got %#v", res.Files)
	}
}

func TestGlobTool_InvalidPattern(t *testing.T) {
	glob := NewGlobTool()

	_, err := glob.Execute(context.Background(), map[string]any{
		"pattern": "[",
	}, &tool.Env{WorkingDir: t.TempDir()})
	if err == nil {
		t.Error("Expected error for malformed pattern")
	}
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "a/main.go", false},
		{"**/*.go", "main.go", true},
		{"**/*.go", "a/b/main.go", true},
		{"src/**", "src/a/b", true},
		{"src/**/x.ts", "src/x.ts", true},
		{"src/**/x.ts", "lib/x.ts", false},
	}

	for _, tt := range tests {
		if got := matchGlob(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}
