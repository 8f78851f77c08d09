package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ftc-sync/internal/pipeline"
	"github.com/sells-group/ftc-sync/internal/ratestore"
)

var (
	reconcileStaging string
	reconcileInit    bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge an existing staging workbook into the historical workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconcileStaging != "" {
			cfg.Rates.StagingPath = reconcileStaging
		}

		if reconcileInit {
			if err := ratestore.Init(cfg.Rates.HistoricalPath, cfg.Rates.SheetName); err != nil {
				return eris.Wrap(err, "init historical workbook")
			}
		}

		rows, err := ratestore.LoadStaging(cfg.Rates.StagingPath)
		if err != nil {
			return eris.Wrap(err, "load staging workbook")
		}

		p := pipeline.New(cfg, nil, nil, nil)
		result, err := p.Merge(rows)
		if err != nil {
			return err
		}

		if result.NoUpdate {
			fmt.Println("No updates at the moment")
		} else {
			fmt.Printf("Appended %d new rows to %s\n", result.NewRows, cfg.Rates.HistoricalPath)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileStaging, "staging", "", "staging workbook path (overrides config)")
	reconcileCmd.Flags().BoolVar(&reconcileInit, "init", false, "create an empty historical workbook if missing")
	rootCmd.AddCommand(reconcileCmd)
}
