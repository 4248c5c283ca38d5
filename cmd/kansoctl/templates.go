package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List challenge templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		registry, err := templates.LoadFile(path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tNAME\tDAYS\tTASKS")
		for _, t := range registry.List() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", t.Type, t.Name, t.DurationDays, len(t.Tasks))
		}
		return w.Flush()
	},
}

func init() {
	templatesCmd.Flags().String("file", "", "Templates YAML file (default: built-in templates)")
}
