package cmd

import (
	"github.com/spf13/cobra"

	// Registers the chat wire events and the websocket bus topics with the
	// default catalog.
	_ "github.com/nfrund/organizapp/internal/modules/chat"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore bus topics and wire events",
	Long: `The topics command lists the catalog of bus topics and client wire events.
Framework topics carry websocket traffic on the bus; module topics describe
the chat events exchanged with clients.

Examples:
  # List everything
  organizapp topics list

  # Only the chat wire events, as JSON
  organizapp topics list --module chat --format json

  # One entry in detail
  organizapp topics get chat.in.send_message`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
