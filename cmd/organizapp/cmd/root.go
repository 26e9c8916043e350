package cmd

import (
	"os"

	"github.com/nfrund/organizapp/internal/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "organizapp",
	Short: "OrganiZapp group chat relay",
	Long: `organizapp runs the OrganiZapp realtime relay and inspects its state.

Available commands:
  serve     Run the HTTP and websocket server
  topics    Explore the bus topics and wire events
  users     Create and list users
  groups    List live groups
  version   Print the version

Use "organizapp [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The server logs to stdout in the configured format; the
		// inspection commands keep stdout for their output.
		if cmd.Name() == serveCmd.Name() {
			return
		}
		logging.NewWithWriter(os.Stderr, "text", logLevel)
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for inspection commands (debug, info, warn, error)")
}
