package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ftc-sync/internal/extract"
	"github.com/sells-group/ftc-sync/internal/pipeline"
	"github.com/sells-group/ftc-sync/internal/runlog"
	anthropicpkg "github.com/sells-group/ftc-sync/pkg/anthropic"
	"github.com/sells-group/ftc-sync/pkg/pagefinder"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full rate sync pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic key not configured (set FTC_ANTHROPIC_KEY or anthropic.key)")
		}

		runs, err := openRunLog(ctx)
		if err != nil {
			return err
		}
		defer runs.Close()

		locator := pagefinder.New(cfg.Browser.Headless,
			time.Duration(cfg.Browser.TimeoutSecs)*time.Second)

		extractor := extract.New(anthropicpkg.NewClient(cfg.Anthropic.Key), extract.Config{
			Model:      cfg.Anthropic.Model,
			UserAgent:  cfg.Extract.UserAgent,
			Timeout:    time.Duration(cfg.Extract.TimeoutSecs) * time.Second,
			RatePerSec: cfg.Extract.RatePerSec,
		})

		p := pipeline.New(cfg, locator, extractor, runs)
		result, err := p.Run(ctx, syncDryRun)
		if err != nil {
			return err
		}

		printSummary(result)
		return nil
	},
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("Page: %s\n", result.PageURL)
	fmt.Printf("Staged %d rows (skipped rates: %d, missing dates: %d, unmapped fuels: %d)\n",
		result.StagingRows,
		result.Report.SkippedRates,
		result.Report.MissingDates,
		result.Report.UnmappedFuels,
	)
	switch {
	case result.NoUpdate:
		fmt.Println("No updates at the moment")
	case result.NewRows > 0:
		fmt.Printf("Appended %d new rows to %s\n", result.NewRows, cfg.Rates.HistoricalPath)
	}
}

func openRunLog(ctx context.Context) (*runlog.Log, error) {
	runs, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open run log")
	}
	if err := runs.Migrate(ctx); err != nil {
		runs.Close()
		return nil, eris.Wrap(err, "migrate run log")
	}
	zap.L().Debug("run log ready", zap.String("path", cfg.RunLog.Path))
	return runs, nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "stop after writing the staging workbook")
	rootCmd.AddCommand(syncCmd)
}
