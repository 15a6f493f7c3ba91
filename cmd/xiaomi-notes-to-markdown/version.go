package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of xiaomi-notes-to-markdown",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xiaomi-notes-to-markdown %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
