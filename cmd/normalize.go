package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ftc-sync/internal/pipeline"
)

var (
	normalizeInput   string
	normalizeStaging string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize a saved raw document into the staging workbook",
	Long:  "Runs the normalization half of the pipeline offline against a saved raw JSON document. No browser or API key needed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(normalizeInput)
		if err != nil {
			return eris.Wrapf(err, "read raw document %s", normalizeInput)
		}

		if normalizeStaging != "" {
			cfg.Rates.StagingPath = normalizeStaging
		}

		p := pipeline.New(cfg, nil, nil, nil)
		result, err := p.Normalize(normalizeInput, raw, true)
		if err != nil {
			return err
		}

		fmt.Printf("Staged %d rows to %s (skipped rates: %d, missing dates: %d, unmapped fuels: %d)\n",
			result.StagingRows,
			cfg.Rates.StagingPath,
			result.Report.SkippedRates,
			result.Report.MissingDates,
			result.Report.UnmappedFuels,
		)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeInput, "input", "", "path to a saved raw JSON document")
	normalizeCmd.Flags().StringVar(&normalizeStaging, "staging", "", "staging workbook path (overrides config)")
	normalizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(normalizeCmd)
}
