package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var servicesRemoveYes bool

var servicesCmd = &cobra.Command{
	Use:     "services",
	Aliases: []string{"svc"},
	Short:   "Inspect and manage the bundle's OS services",
}

var servicesStatusCmd = &cobra.Command{
	Use:   "status [service or product...]",
	Short: "Show the services as the OS service manager sees them",
	Long: `Lists every service product of the catalog, enabled or not, with its
port, its state and the command line the OS has recorded for it. A service
whose recorded command line no longer points into the bundle is reported as
drifted. Names restrict the list to those services or products.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(true)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		formatter, _, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		s := application.Services()
		selected, err := s.Registry.Select(args...)
		if err != nil {
			return err
		}
		return formatter.Reports(cmd.OutOrStdout(), s.Manager.Reports(cmd.Context(), selected))
	},
}

var servicesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Stop and unregister every service of the bundle",
	Long: `Stops and removes every service product of the catalog from the OS
service manager. The next startup installs them again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !servicesRemoveYes {
			return fmt.Errorf("refusing to remove services without --yes")
		}
		application, err := newApplication(false)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		if err := application.Teardown(cmd.Context()); err != nil {
			return fmt.Errorf("some services could not be removed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All services removed")
		return nil
	},
}

var servicesStopCmd = &cobra.Command{
	Use:   "stop [service or product...]",
	Short: "Stop the running services of the bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(false)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		s := application.Services()
		selected, err := s.Registry.Select(args...)
		if err != nil {
			return err
		}
		if err := s.Manager.StopAll(cmd.Context(), selected); err != nil {
			return fmt.Errorf("some services could not be stopped: %w", err)
		}
		return nil
	},
}

var servicesInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List the products of the catalog and their installed versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(true)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		formatter, _, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		return formatter.Inventory(cmd.OutOrStdout(), application.Services().Catalog.Inventory())
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.AddCommand(servicesStatusCmd, servicesRemoveCmd, servicesStopCmd, servicesInventoryCmd)

	servicesRemoveCmd.Flags().BoolVarP(&servicesRemoveYes, "yes", "y", false, "Confirm the removal")
}
