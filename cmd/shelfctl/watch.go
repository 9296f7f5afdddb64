package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/poller"
)

var (
	watchTimeout  time.Duration
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [bookmark-id...]",
	Short: "Wait until bookmarks finish processing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return errors.New("--user is required")
		}
		return watchStatuses(cmd, newClient(), args, watchInterval, watchTimeout)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 2*time.Minute, "how long to wait")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 3*time.Second, "status poll interval")
	rootCmd.AddCommand(watchCmd)
}

// watchStatuses tracks ids with a Poller and prints each one as it reaches
// COMPLETED or FAILED. It returns when nothing is left to track.
func watchStatuses(cmd *cobra.Command, client poller.StatusClient, ids []string, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = poller.DefaultInterval
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	failed := 0
	p := poller.New(client,
		poller.WithInterval(interval),
		poller.WithLogger(cliLogger()),
		poller.WithOnRefresh(func(entries []domain.StatusEntry) {
			for _, e := range entries {
				mark := "✓"
				if e.ProcessingStatus == domain.StatusFailed {
					mark = "✗"
					failed++
				}
				cmd.Printf("%s %s %s\n", mark, e.ID, e.ProcessingStatus)
			}
		}))
	defer p.Close()

	p.Track(ids...)

	check := time.NewTicker(interval / 2)
	defer check.Stop()
	for p.Running() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("still processing after %s: %v", timeout, p.Tracked())
		case <-check.C:
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d bookmark(s) failed", failed)
	}
	return nil
}
