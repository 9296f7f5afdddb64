package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/enrich"
)

var sweepAll bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Process pending bookmarks through the cron endpoint",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepAll, "all", false, "repeat until nothing is pending")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	client := newClient()
	for {
		res, err := client.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		if res.Outcome == enrich.OutcomeNoPending {
			cmd.Println("nothing pending")
			return nil
		}
		cmd.Printf("%s %s\n", res.BookmarkID, res.Outcome)
		if !sweepAll {
			return nil
		}
	}
}
