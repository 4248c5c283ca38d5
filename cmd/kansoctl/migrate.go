package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	Long:  `Apply the schema for the configured SQL backend. Existing tables are left untouched.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.repos.DB == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "memory storage has no schema, nothing to do")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", a.cfg.Storage)
		return nil
	},
}
