package app

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// RelaunchedEnv is set in the environment of a relaunched process so a
// second restart request does not relaunch again.
const RelaunchedEnv = "ANCHOR_RELAUNCHED"

// Relaunched reports whether this process was started by Relaunch.
func Relaunched() bool {
	return os.Getenv(RelaunchedEnv) == "1"
}

// Relaunch starts a new anchor process with args and does not wait for it.
// The caller is expected to exit right after.
func Relaunch(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine executable path: %w", err)
	}

	cmd := exec.Command(exe, args...)
	cmd.Dir = filepath.Dir(exe)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), RelaunchedEnv+"=1")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to relaunch %s: %w", exe, err)
	}

	logging.Info("Bootstrap", "Relaunched as pid %d", cmd.Process.Pid)
	return cmd.Process.Release()
}
