package main

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if humanOutput {
			outputHuman("litbot %s\n", Version)
			return
		}
		outputJSON(map[string]string{"version": Version})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
