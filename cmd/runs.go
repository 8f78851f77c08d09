package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runs, err := openRunLog(ctx)
		if err != nil {
			return err
		}
		defer runs.Close()

		entries, err := runs.List(ctx, runsLimit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTATUS\tSTAGED\tAPPENDED\tSKIPPED\tERROR")
		for _, e := range entries {
			errText := e.Error
			if len(errText) > 60 {
				errText = errText[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				e.StartedAt.Format("2006-01-02 15:04:05"),
				e.Status,
				e.RowsStaged,
				e.RowsAppended,
				e.SkippedRates,
				errText,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list (0 for all)")
	rootCmd.AddCommand(runsCmd)
}
