package cmd

import (
	"context"
	"fmt"

	"github.com/nfrund/organizapp/cmd/organizapp/internal/output"
	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/server"
	"github.com/spf13/cobra"
)

var (
	userName   string
	userAvatar string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Create and list users",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user in the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd.Context(), func(ctx context.Context, stores *server.Stores) error {
			user := &domain.User{Name: domain.NormalizeName(userName), AvatarURL: userAvatar}
			if err := domain.Validate(user); err != nil {
				return err
			}
			created, err := stores.Users.Create(ctx, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", created.Name, created.ID)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd.Context(), func(ctx context.Context, stores *server.Stores) error {
			users, err := stores.Users.List(ctx)
			if err != nil {
				return err
			}
			return output.UsersTable(cmd.OutOrStdout(), users)
		})
	},
}

// withStores opens the configured stores for the duration of fn.
func withStores(ctx context.Context, fn func(context.Context, *server.Stores) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.New()
	if err != nil {
		return err
	}
	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close(ctx)
	return fn(ctx, stores)
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd, usersListCmd)

	usersAddCmd.Flags().StringVar(&userName, "name", "", "Display name (unique)")
	usersAddCmd.Flags().StringVar(&userAvatar, "avatar", "", "Avatar URL")
	_ = usersAddCmd.MarkFlagRequired("name")
}
