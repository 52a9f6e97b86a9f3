// Package builtin holds the investigation tools sleuth ships with. All of
// them resolve relative paths against the registry Env working directory.
package builtin

import "sleuth/internal/tool"

// All returns a fresh instance of every built-in tool.
func All() []tool.Tool {
	return []tool.Tool{
		NewReadTool(),
		NewGlobTool(),
		NewGrepTool(),
		NewBashTool(),
	}
}
