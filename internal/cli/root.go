// Package cli implements the herald commands: the daemon and a few thin
// clients talking to it.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

const defaultServerURL = "http://localhost:8080"

var (
	serverURL  string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "herald",
	Short: "Real-time announcement delivery engine",
	Long: "herald keeps a live, categorized feed of announcements from a websocket backend " +
		"(or a synthetic generator) and serves it over HTTP and a websocket stream.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverURL, "url", "u", "", "Daemon URL (default: $HERALD_URL or "+defaultServerURL+")")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func getServerURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	if env := os.Getenv("HERALD_URL"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return defaultServerURL
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// formatLine renders one announcement for the text format.
func formatLine(a domain.Announcement) string {
	mark := "●"
	if a.IsRead {
		mark = "○"
	}
	line := fmt.Sprintf("%s %-10s %s  %s", mark, a.Category, a.Timestamp.Local().Format("2006-01-02 15:04"), a.Title)
	if a.Context != "" {
		line += " - " + a.Context
	}
	return line + "  (" + a.ID + ")"
}
