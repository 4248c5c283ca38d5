package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	generateDate string
	generateUser string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate daily tasks for a date",
	Long:  `Create the missing daily tasks of every running challenge for a date. Running it twice creates nothing new.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		day, err := a.parseDay(generateDate)
		if err != nil {
			return err
		}

		result, err := a.generator.GenerateForDate(cmd.Context(), generateUser, day)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: created %d daily tasks\n", result.Date, result.Created)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateDate, "date", "", "Day to generate, YYYY-MM-DD (default today)")
	generateCmd.Flags().StringVar(&generateUser, "user", "", "Limit generation to one user id")
}
