package cmd

import (
	"errors"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/anchorbundle/anchor/internal/app"
	"github.com/anchorbundle/anchor/internal/formatting"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error, including a startup that
	// finished with aggregated errors.
	ExitCodeError = 1
	// ExitCodeRestartRequired indicates the bundle needs a restart that was
	// not performed because of --no-relaunch.
	ExitCodeRestartRequired = 3
)

// Flags shared by every command.
var (
	rootConfigPath string
	rootDebug      bool
	rootOutput     string
	rootNoColor    bool
)

// rootCmd represents the base command for the anchor application.
var rootCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Keep a portable bundle working wherever it is unpacked",
	Long: `anchor reconciles a portable bundle with the machine it runs on.

On every start it detects whether the bundle was moved, rewrites stale paths
in configuration files, updates the environment values in the registry and
brings the bundle's OS services into a consistent, running state.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "anchor version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// RestartRequiredError is returned when a restart is needed and the
// process was told not to relaunch itself.
type RestartRequiredError struct{}

func (e *RestartRequiredError) Error() string {
	return "restart required"
}

// StartupFailedError carries the aggregated error text of a run.
type StartupFailedError struct {
	Text string
}

func (e *StartupFailedError) Error() string {
	return "startup finished with errors"
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var restart *RestartRequiredError
	if errors.As(err, &restart) {
		return ExitCodeRestartRequired
	}
	return ExitCodeError
}

// newApplication builds the application from the shared flags.
func newApplication(silent bool) (*app.Application, error) {
	return app.NewApplication(app.NewConfig(rootDebug, silent, rootConfigPath))
}

// newFormatter builds the formatter selected by --output. Colors are used
// only on a terminal.
func newFormatter(cmd *cobra.Command) (formatting.Formatter, formatting.OutputFormat, error) {
	format, err := formatting.ParseFormat(rootOutput)
	if err != nil {
		return nil, "", err
	}
	color := !rootNoColor && isTerminal(cmd.OutOrStdout())
	if !color {
		text.DisableColors()
	}
	return formatting.New(formatting.Options{Format: format, Color: color}), format, nil
}

func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "", "Directory holding anchor.yaml, or the file itself (default: next to the executable)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&rootOutput, "output", "o", string(formatting.FormatTable), "Output format: table, plain, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
