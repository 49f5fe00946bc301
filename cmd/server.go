package cmd

import (
	"FableStudio/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the FableStudio HTTP server",
	Long:  `Start the FableStudio editing server: timeline API, playback control, asset storage and the live websocket feed.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
