package cmd

import (
	"fmt"
	"os"

	"FableStudio/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fablestudio",
	Short: "FableStudio is an audiobook production timeline editor backend.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
