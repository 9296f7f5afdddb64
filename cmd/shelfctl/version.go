package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.String("shelfctl"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
