package catalog

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/anchorbundle/anchor/internal/cmdline"
	"github.com/anchorbundle/anchor/internal/services"
)

// syntaxCheckTimeout bounds a single syntax check run.
const syntaxCheckTimeout = 30 * time.Second

// CommandRunner runs a product executable and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, dir, exe string, args []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, exe string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// SyntaxCheck runs the product executable with the check arguments in
// command. The check passes when the command exits cleanly and its output
// reports no "[ERROR]".
func (c *Catalog) SyntaxCheck(ctx context.Context, product, command string) services.SyntaxResult {
	p, ok := c.Product(product)
	if !ok {
		return services.SyntaxResult{Output: "unknown product " + product}
	}
	exe := p.ExecutablePath()
	if exe == "" {
		return services.SyntaxResult{Output: p.Name + " is not installed"}
	}

	ctx, cancel := context.WithTimeout(ctx, syntaxCheckTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, filepath.Dir(exe), exe, cmdline.Split(command))
	output := strings.TrimSpace(string(out))

	if err == nil && !strings.Contains(output, "[ERROR]") {
		return services.SyntaxResult{OK: true, Output: output}
	}
	if output == "" {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			output = "syntax check timed out after " + syntaxCheckTimeout.String()
		} else if err != nil {
			output = err.Error()
		}
	}
	return services.SyntaxResult{OK: false, Output: output}
}
