package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-ledger-service/internal/config"
)

// NewRepairScoresCmd rebuilds leaderboard records that are missing for recorded attempts.
func NewRepairScoresCmd(configPath *string) *cobra.Command {
	var quizID string
	cmd := &cobra.Command{
		Use:   "repair-scores",
		Short: "Recreate missing score records of a quiz from its attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quizID == "" {
				return errors.New("--quiz is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			log := config.NewLogger(cfg)

			svc, err := buildServices(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			repaired, err := svc.ledger.RepairScores(cmd.Context(), quizID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "repaired %d score records for quiz %s\n", repaired, quizID)
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID to repair")
	return cmd
}
