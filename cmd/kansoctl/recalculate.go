package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recalculateDate      string
	recalculateChallenge string
)

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Recompute progress of running challenges",
	Long:  `Recompute and store progress as of a date. Challenges whose end date has passed are settled as completed or failed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		day, err := a.parseDay(recalculateDate)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if recalculateChallenge != "" {
			report, err := a.progress.Recalculate(cmd.Context(), recalculateChallenge, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s, progress %.2f, streak %d\n",
				report.ChallengeID, report.Status, report.Progress, report.CurrentStreak)
			return nil
		}

		n, err := a.progress.RecalculateAll(cmd.Context(), day)
		fmt.Fprintf(out, "recalculated %d challenges as of %s\n", n, day.Format("2006-01-02"))
		return err
	},
}

func init() {
	recalculateCmd.Flags().StringVar(&recalculateDate, "date", "", "Day to evaluate, YYYY-MM-DD (default today)")
	recalculateCmd.Flags().StringVar(&recalculateChallenge, "challenge", "", "Recalculate a single challenge id")
}
