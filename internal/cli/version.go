package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policyradar/policyradar/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("policyradar %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}
