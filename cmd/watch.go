package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/pkg/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run startup again whenever the configuration changes",
	Long: `Runs a startup, then watches anchor.yaml and the settings file. Every
change reloads the configuration and runs another startup. Restarts are not
performed in this mode; they are reported and left to the next startup.

Press Ctrl+C to stop watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	application, err := newApplication(false)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	formatter, _, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return application.Watch(cmd.Context(), func(result orchestrator.RunResult) {
		if err := formatter.RunResult(out, result); err != nil {
			logging.Warn("Watch", "Cannot render result: %v", err)
		}
	})
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
