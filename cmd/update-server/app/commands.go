// Package app provides the entry point for the update server application.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sfr-mod/update-server/internal/logger"
	"github.com/sfr-mod/update-server/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "update-server",
	DisableAutoGenTag: true,
	Short:             "Mod update API server",
	Long: `Mod update API server answers "what is the latest release of the mod, and
where can it be downloaded?". It queries the configured upstream sources in
priority order, normalizes the winning payload, and serves it behind a
short-lived cache.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the update server.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("update-server %s (commit %s)\n", versions.Version, versions.Commit)
	},
}
