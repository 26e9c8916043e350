package cmd

import (
	"fmt"

	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/logging"
	"github.com/nfrund/organizapp/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	Long: `Run the relay. Configuration comes from the environment and an optional
.env file; see SERVER_ADDR, STORE_DRIVER and the SURREAL_* keys.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		logging.New()

		s, err := server.Bootstrap(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("bootstrap server: %w", err)
		}
		return s.Start(cfg.GetServerAddr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
