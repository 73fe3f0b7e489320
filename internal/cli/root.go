// Package cli wires configuration, storage and transport into the chessd commands.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const applicationName = "chessd"

var envFile string

var rootCmd = &cobra.Command{
	Use:   applicationName,
	Short: "Turn-based chess sessions over HTTP",
	Long: `chessd runs two-player chess games. Each move is authorized by a one-time
turn token that is delivered to the player whose turn it is.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			os.Setenv("CHESSD_ENV_FILE", envFile)
		}
	},
}

// ExecuteContext runs the root command. Called by main.main().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReapCmd())
	rootCmd.AddCommand(newNotifyCmd())
}
