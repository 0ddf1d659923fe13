package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the files a relocation would rewrite",
	Long: `Evaluates the bundle and product scan rules and lists every candidate
file. Nothing is modified.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	application, err := newApplication(true)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	formatter, _, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	files, err := application.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return formatter.Files(cmd.OutOrStdout(), files)
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
