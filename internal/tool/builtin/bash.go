package builtin

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"sleuth/internal/tool"
)

// EmptyOutputPlaceholder replaces empty command output; providers reject
// empty tool messages.
const EmptyOutputPlaceholder = "(Command executed successfully with no output)"

const defaultBashTimeout = 2 * time.Minute

type BashTool struct{}

func NewBashTool() *BashTool {
	return &BashTool{}
}

func (t *BashTool) Name() string {
	return "bash"
}

func (t *BashTool) Description() string {
	return "Execute a bash command in the repository root (e.g. git log, git diff, git show)"
}

func (t *BashTool) BestPractices() string {
	return `**bash**: use read-only git commands (git log, git diff, git show) to inspect history; keep output small with --stat or -n.`
}

func (t *BashTool) Parameters() *tool.Schema {
	return tool.Object(map[string]*tool.Schema{
		"command": tool.String("The bash command to execute"),
		"timeout": tool.Number("Timeout in milliseconds (default: 120000)"),
	}, "command")
}

func (t *BashTool) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	command := stringArg(args, "command")

	timeout := defaultBashTimeout
	if ms := intArg(args, "timeout"); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env.Log().Debug("bash: %s", command)

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = env.Dir()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("command timed out after %s: %s", timeout, output)
		}
		return nil, fmt.Errorf("%w: %s", err, output)
	}

	if len(output) == 0 {
		return EmptyOutputPlaceholder, nil
	}
	return string(output), nil
}
