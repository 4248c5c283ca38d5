package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/workers"
)

var rolloverDate string

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Run the daily rollover once",
	Long:  `Do what the API scheduler does at the start of a day: generate the day's tasks, mark earlier open tasks as missed and recalculate progress.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		day, err := a.parseDay(rolloverDate)
		if err != nil {
			return err
		}

		scheduler := workers.NewScheduler(a.generator, a.daily, a.progress, a.clock, 0)
		if err := scheduler.RunDay(cmd.Context(), day); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "rollover for %s done\n", day.Format("2006-01-02"))
		return nil
	},
}

func init() {
	rolloverCmd.Flags().StringVar(&rolloverDate, "date", "", "Day to roll over to, YYYY-MM-DD (default today)")
}
