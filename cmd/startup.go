package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/anchorbundle/anchor/internal/app"
	"github.com/anchorbundle/anchor/internal/formatting"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/pkg/logging"
)

var (
	startupDryRun     bool
	startupNoRelaunch bool
	startupSilent     bool
)

var startupCmd = &cobra.Command{
	Use:   "startup",
	Short: "Reconcile the bundle with its current location and start its services",
	Long: `Runs one reconciliation of the bundle:

  1. Cleaning up: archive logs, purge the temp directory, stop leftovers
  2. Preparing: refresh the hostname and launch-at-startup settings
  3. Checking location: rewrite paths when the bundle was moved
  4. Updating environment: sync the registry values
  5. Starting services: install, repair and start the OS services
  6. Checking certificate: create the local root certificate if missing
  7. Indexing repositories
  8. Saving location

When the environment changed, the services are removed and anchor starts
itself again so the new values are picked up. Use --no-relaunch to exit with
code 3 instead.

Use --dry-run to print what would change without touching anything.`,
	Args: cobra.NoArgs,
	RunE: runStartup,
}

func runStartup(cmd *cobra.Command, args []string) error {
	application, err := newApplication(startupSilent)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	formatter, format, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if startupDryRun {
		plan, err := application.Plan(ctx)
		if err != nil {
			return fmt.Errorf("failed to plan startup: %w", err)
		}
		return formatter.Plan(out, plan)
	}

	interactive := !startupSilent && format == formatting.FormatTable && isTerminal(cmd.ErrOrStderr())
	progress, done := newProgress(cmd.ErrOrStderr(), interactive)
	result := application.Startup(ctx, progress)
	done()

	if !startupSilent {
		if err := formatter.RunResult(out, result); err != nil {
			return err
		}
	}
	return finishStartup(cmd, application, result)
}

// finishStartup turns a run result into the process outcome, relaunching
// anchor when a restart is required.
func finishStartup(cmd *cobra.Command, application *app.Application, result orchestrator.RunResult) error {
	if result.RestartRequired {
		if startupNoRelaunch || app.Relaunched() {
			return &RestartRequiredError{}
		}
		fmt.Fprintln(cmd.ErrOrStderr(), text.FgYellow.Sprint("Environment changed, restarting now"))
		if err := application.Teardown(cmd.Context()); err != nil {
			logging.Warn("Bootstrap", "Some services could not be removed: %v", err)
		}
		return app.Relaunch(os.Args[1:])
	}
	if result.Failed() {
		return &StartupFailedError{Text: result.AggregateError}
	}
	return nil
}

// newProgress returns a progress callback and a function that stops it.
// Without a terminal every step is logged instead of animated.
func newProgress(w io.Writer, interactive bool) (orchestrator.ProgressFunc, func()) {
	if !interactive {
		return func(step, total int, label string) {
			logging.Debug("Bootstrap", "[%d/%d] %s", step, total, label)
		}, func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Start()
	progress := func(step, total int, label string) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" [%d/%d] %s...", step, total, label)
		s.Unlock()
	}
	return progress, s.Stop
}

func init() {
	rootCmd.AddCommand(startupCmd)

	startupCmd.Flags().BoolVar(&startupDryRun, "dry-run", false, "Print the pending changes without applying them")
	startupCmd.Flags().BoolVar(&startupNoRelaunch, "no-relaunch", false, "Exit with code 3 instead of relaunching when a restart is required")
	startupCmd.Flags().BoolVar(&startupSilent, "silent", false, "Suppress console output; the startup log is still written")
}
