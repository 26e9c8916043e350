package cmd

import (
	"context"

	"github.com/nfrund/organizapp/cmd/organizapp/internal/output"
	"github.com/nfrund/organizapp/internal/server"
	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Inspect chat groups",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd.Context(), func(ctx context.Context, stores *server.Stores) error {
			groups, err := stores.Groups.List(ctx)
			if err != nil {
				return err
			}
			return output.GroupsTable(cmd.OutOrStdout(), groups)
		})
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupsListCmd)
}
