package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-ledger",
		Short:        "Quiz authoring, attempt ledger and leaderboard service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	start := NewStartCmd(&configPath, &port)
	start.Flags().StringVar(&port, "port", "", "port to listen on (overrides config and PORT)")
	cmd.AddCommand(start)
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewRepairScoresCmd(&configPath))
	return cmd
}
