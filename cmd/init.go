package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmware/transport-docs/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a transport-docs configuration file",
	Long: `Writes a .transport-docs.yml with default settings, or walks through an
interactive wizard with --interactive.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolP("interactive", "i", false, "run the interactive wizard")
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	interactive, _ := cmd.Flags().GetBool("interactive")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(cfgFile); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
	}

	if interactive {
		if _, err := config.RunWizard(cfgFile); err != nil {
			return err
		}
		return nil
	}

	if err := config.DefaultConfig().Save(cfgFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
	return nil
}
