package builtin

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"sleuth/internal/tool"
)

type GlobTool struct{}

func NewGlobTool() *GlobTool {
	return &GlobTool{}
}

func (t *GlobTool) Name() string {
	return "glob"
}

func (t *GlobTool) Description() string {
	return "Find files matching a glob pattern. '**/' matches any number of directories."
}

func (t *GlobTool) Parameters() *tool.Schema {
	return tool.Object(map[string]*tool.Schema{
		"pattern": tool.String("Glob pattern (e.g., '*.go', 'src/**/*.ts')"),
		"path":    tool.String("Base path to search (default: repository root)"),
	}, "pattern")
}

// GlobResult lists matched paths relative to the search base.
type GlobResult struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

func (t *GlobTool) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	base := resolvePath(env, stringArg(args, "path"))
	pattern := filepath.ToSlash(stringArg(args, "pattern"))

	if _, err := filepath.Match(strings.ReplaceAll(pattern, "**/", ""), ""); err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	var matches []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return nil
		}
		if matchGlob(pattern, filepath.ToSlash(rel)) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob failed: %w", err)
	}

	sort.Strings(matches)
	if matches == nil {
		matches = []string{}
	}
	return &GlobResult{Count: len(matches), Files: matches}, nil
}

// matchGlob matches slash separated paths, treating "**" segments as zero or
// more directories.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := filepath.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
