package builtin

import (
	"path/filepath"

	"sleuth/internal/tool"
)

// resolvePath makes p absolute against the env working directory.
func resolvePath(env *tool.Env, p string) string {
	if p == "" {
		return env.Dir()
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(env.Dir(), p)
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
