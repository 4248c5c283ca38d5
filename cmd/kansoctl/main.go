package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	storageFlag string
	dsnFlag     string
)

var rootCmd = &cobra.Command{
	Use:           "kansoctl",
	Short:         "Operate a Kanso challenge engine store",
	Long:          `Maintenance commands for the challenge engine: schema migration, daily task generation and progress recalculation. Storage settings come from the environment (.env) unless overridden by flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend: postgres, sqlite or memory (default $STORAGE)")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "Connection string or SQLite path (default from environment)")

	rootCmd.AddCommand(migrateCmd, generateCmd, recalculateCmd, rolloverCmd, templatesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
