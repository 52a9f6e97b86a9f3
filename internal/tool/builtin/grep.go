package builtin

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sleuth/internal/tool"
)

// maxGrepMatches caps the lines returned to the model.
const maxGrepMatches = 200

type GrepTool struct{}

func NewGrepTool() *GrepTool {
	return &GrepTool{}
}

func (t *GrepTool) Name() string {
	return "grep"
}

func (t *GrepTool) Description() string {
	return "Search for content in files using regex patterns. Returns path:line:text matches."
}

func (t *GrepTool) Parameters() *tool.Schema {
	return tool.Object(map[string]*tool.Schema{
		"pattern":          tool.String("Regular expression pattern to search for"),
		"path":             tool.String("File or directory to search in (default: repository root)"),
		"case_insensitive": tool.Boolean("Case-insensitive search").WithDefault(false),
		"file_pattern":     tool.String("Filter files by pattern (e.g., '*.go')"),
	}, "pattern")
}

func (t *GrepTool) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	regexPattern := stringArg(args, "pattern")
	if boolArg(args, "case_insensitive") {
		regexPattern = "(?i)" + regexPattern
	}

	re, err := regexp.Compile(regexPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	root := resolvePath(env, stringArg(args, "path"))
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("path not found: %w", err)
	}

	filePattern := stringArg(args, "file_pattern")
	var results []string

	if !info.IsDir() {
		if !isBinaryFile(root) {
			results = t.searchFile(root, root, re)
		}
	} else {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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
			if filePattern != "" {
				if matched, err := filepath.Match(filePattern, d.Name()); err != nil || !matched {
					return nil
				}
			}
			if isBinaryFile(path) {
				return nil
			}

			results = append(results, t.searchFile(root, path, re)...)
			if len(results) >= maxGrepMatches {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("directory walk failed: %w", err)
		}
	}

	if len(results) == 0 {
		return "No matches found", nil
	}
	if len(results) > maxGrepMatches {
		results = append(results[:maxGrepMatches], fmt.Sprintf("... (truncated at %d matches)", maxGrepMatches))
	}
	return strings.Join(results, "\n"), nil
}

func (t *GrepTool) searchFile(root, path string, re *regexp.Regexp) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	display := path
	if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
		display = rel
	}

	var results []string
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if re.MatchString(line) {
			results = append(results, fmt.Sprintf("%s:%d:%s", display, lineNum, line))
		}
	}

	return results
}

// isBinaryFile checks if a file is binary by reading the first 512 bytes
func isBinaryFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return true // Assume binary if can't open
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil {
		return true
	}

	// Check for null bytes (indicator of binary file)
	return bytes.Contains(buf[:n], []byte{0})
}
