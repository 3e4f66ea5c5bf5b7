package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vmware/transport-docs/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "transport-docs",
	Short: "Documentation server for the Transport event bus",
	Long: `transport-docs serves the Transport TypeScript documentation section.
Each URL under the base path mounts one content page, and code samples are
syntax-highlighted exactly once per mount.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
