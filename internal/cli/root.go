// Package cli defines the policyradar command tree.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "policyradar",
	Short:         "Policy Radar — EU policy document tracking API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd, ingestCmd, versionCmd)
	return rootCmd.Execute()
}
