package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "herald",
	Short: "Herald connects congregants with their elected representatives",
	Long: `Herald resolves postal addresses to legislative districts, keeps a
directory of federal and state representatives, and delivers prayer
outreach to the officials that represent each user.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
