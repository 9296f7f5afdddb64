package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/apiclient"
	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var (
	addTopic       string
	addDescription string
	addNoWait      bool
	addTimeout     time.Duration
	addInterval    time.Duration
)

var addCmd = &cobra.Command{
	Use:   "add [url...]",
	Short: "Add bookmarks and wait for their previews",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addTopic, "topic", "t", "", "topic id or title (required)")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "description stored with each bookmark")
	addCmd.Flags().BoolVar(&addNoWait, "no-wait", false, "return once the bookmarks are created")
	addCmd.Flags().DurationVar(&addTimeout, "timeout", 2*time.Minute, "how long to wait for processing")
	addCmd.Flags().DurationVar(&addInterval, "interval", 3*time.Second, "status poll interval")
	_ = addCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if userID == "" {
		return errors.New("--user is required")
	}
	client := newClient()
	ctx := cmd.Context()

	topicID, err := resolveTopic(cmd, client, addTopic)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(args))
	for _, raw := range args {
		b, err := client.CreateBookmark(ctx, raw, topicID, domain.OptionalString(addDescription))
		if err != nil {
			cmd.PrintErrf("✗ %s: %v\n", raw, err)
			continue
		}
		cmd.Printf("+ %s %s [%s] %s\n", b.ID, domain.ExtractDomain(b.URL), b.ProcessingStatus, b.URL)
		ids = append(ids, b.ID)
	}
	if len(ids) == 0 {
		return errors.New("no bookmark was created")
	}
	if addNoWait {
		return nil
	}
	return watchStatuses(cmd, client, ids, addInterval, addTimeout)
}

// resolveTopic accepts a topic id or a case-insensitive title.
func resolveTopic(cmd *cobra.Command, client *apiclient.Client, ref string) (string, error) {
	topics, err := client.ListTopics(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to list topics: %w", err)
	}
	for _, t := range topics {
		if t.Topic == nil {
			continue
		}
		if t.ID == ref || strings.EqualFold(t.Title, ref) {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("topic %q not found", ref)
}
