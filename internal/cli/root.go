// Package cli wires the tonance command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the build version, overridable at link time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "tonance",
	Short: "Tonance points economy engine",
	Long: `Tonance is the game economy engine behind the Tonance mining app:
time-based point accrual with booster roles, fixed-period staking,
a 5-level referral cascade, reward tasks and a referral leaderboard.

Run 'tonance serve' to start the HTTP API.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tonance %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
