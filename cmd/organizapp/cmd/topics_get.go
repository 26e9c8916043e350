package cmd

import (
	"fmt"

	"github.com/nfrund/organizapp/cmd/organizapp/internal/output"
	"github.com/nfrund/organizapp/internal/topicmgr"
	"github.com/spf13/cobra"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := topicmgr.Default().Get(args[0])
		if err != nil {
			return fmt.Errorf("%w; use 'organizapp topics list' to see all available topics", err)
		}
		return output.TopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
	},
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
