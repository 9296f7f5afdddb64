package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/apiclient"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

var (
	serverURL  string
	userID     string
	userHeader string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "Command line client for a shelf server",
	Long: `shelfctl adds bookmarks to a shelf server and follows their
link preview processing until it completes.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SHELF_SERVER", "http://localhost:8080"), "shelf server base URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user", envOr("SHELF_USER", ""), "user id sent in the identity header")
	rootCmd.PersistentFlags().StringVar(&userHeader, "user-header", apiclient.DefaultUserHeader, "identity header name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log poll errors")
}

// newClient is swapped in tests.
var newClient = func() *apiclient.Client {
	return apiclient.New(serverURL, userHeader, userID, &http.Client{Timeout: 15 * time.Second})
}

func cliLogger() logger.Logger {
	if !verbose {
		return logger.NewNop()
	}
	return logger.New("debug", true)
}
