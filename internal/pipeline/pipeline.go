// Package pipeline sequences one sync run: locate the rates page, extract
// the raw table document, normalize it, stage it, and reconcile it into
// the historical workbook. The run is strictly sequential; concurrent
// runs against the same workbook are the caller's problem to serialize.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ftc-sync/internal/config"
	"github.com/sells-group/ftc-sync/internal/extract"
	"github.com/sells-group/ftc-sync/internal/model"
	"github.com/sells-group/ftc-sync/internal/normalize"
	"github.com/sells-group/ftc-sync/internal/ratestore"
	"github.com/sells-group/ftc-sync/internal/reconcile"
	"github.com/sells-group/ftc-sync/internal/runlog"
)

// Locator resolves the address of the current rates page.
type Locator interface {
	Resolve(ctx context.Context, startURL, linkSelector string) (string, error)
}

// Pipeline runs the locate → extract → normalize → reconcile sequence.
type Pipeline struct {
	cfg       *config.Config
	locator   Locator
	extractor extract.Extractor
	runs      *runlog.Log
}

// New creates a Pipeline. The run log may be nil; runs are then not
// recorded.
func New(cfg *config.Config, locator Locator, extractor extract.Extractor, runs *runlog.Log) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		locator:   locator,
		extractor: extractor,
		runs:      runs,
	}
}

// Result summarizes one sync run.
type Result struct {
	PageURL     string
	StagingRows int
	NewRows     int
	NoUpdate    bool
	Duration    time.Duration
	Report      *normalize.Report
}

// Run executes the full pipeline once. Terminal failures (navigation,
// extraction, schema, store I/O) abort before the historical workbook is
// touched; per-row soft findings are collected in the result's report.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (*Result, error) {
	start := time.Now()

	runID := p.startRun(ctx)
	result, err := p.run(ctx, dryRun)
	if err != nil {
		p.failRun(ctx, runID, err)
		return nil, err
	}
	result.Duration = time.Since(start)
	p.completeRun(ctx, runID, result)

	return result, nil
}

func (p *Pipeline) run(ctx context.Context, dryRun bool) (*Result, error) {
	pageURL, err := p.locator.Resolve(ctx, p.cfg.Browser.StartURL, p.cfg.Browser.LinkSelector)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: locate rates page")
	}

	raw, err := p.extractor.ExtractTables(ctx, pageURL, p.cfg.Extract.Instruction)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract tables")
	}

	return p.Normalize(pageURL, raw, dryRun)
}

// Normalize runs the normalization and reconciliation half of the
// pipeline against an already-extracted raw document. The sync command
// reaches it through Run; the offline normalize command calls it
// directly with dryRun set.
func (p *Pipeline) Normalize(pageURL string, raw []byte, dryRun bool) (*Result, error) {
	log := zap.L()

	staging, err := normalize.ToStagingTable(raw)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize document")
	}

	rows, report := normalize.BuildCanonicalTable(staging)
	log.Info("pipeline: canonical table built",
		zap.Int("staging_rows", report.RowsIn),
		zap.Int("canonical_rows", report.RowsOut),
		zap.Int("skipped_rates", report.SkippedRates),
		zap.Int("missing_dates", report.MissingDates),
		zap.Int("unmapped_fuels", report.UnmappedFuels),
	)

	if err := ratestore.WriteStaging(p.cfg.Rates.StagingPath, rows); err != nil {
		return nil, eris.Wrap(err, "pipeline: write staging")
	}

	result := &Result{
		PageURL:     pageURL,
		StagingRows: len(rows),
		Report:      report,
	}

	if dryRun {
		log.Info("pipeline: dry run, stopping after staging",
			zap.String("staging_path", p.cfg.Rates.StagingPath))
		return result, nil
	}

	merged, err := p.Merge(rows)
	if err != nil {
		return nil, err
	}
	result.NewRows = merged.NewRows
	result.NoUpdate = merged.NoUpdate

	return result, nil
}

// MergeResult reports the outcome of reconciling staged rows into the
// historical workbook. NoUpdate means the workbook was left untouched,
// which is observably different from an update of zero rows.
type MergeResult struct {
	NewRows  int
	NoUpdate bool
}

// Merge reconciles canonical rows into the historical workbook. The
// workbook is only rewritten when there are genuinely new rows.
func (p *Pipeline) Merge(rows []model.RateRow) (*MergeResult, error) {
	log := zap.L()

	historical, err := ratestore.LoadHistorical(p.cfg.Rates.HistoricalPath, p.cfg.Rates.SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load historical")
	}

	diff := reconcile.Diff(rows, historical)
	if len(diff.NewRows) == 0 {
		log.Info("pipeline: no updates at the moment",
			zap.Int("historical_rows", len(historical)))
		return &MergeResult{NoUpdate: true}, nil
	}

	if err := ratestore.ReplaceHistorical(p.cfg.Rates.HistoricalPath, p.cfg.Rates.SheetName, diff.Merged); err != nil {
		return nil, eris.Wrap(err, "pipeline: replace historical")
	}

	log.Info("pipeline: new entries appended",
		zap.Int("new_rows", len(diff.NewRows)),
		zap.Int("total_rows", len(diff.Merged)),
		zap.String("historical_path", p.cfg.Rates.HistoricalPath),
	)
	return &MergeResult{NewRows: len(diff.NewRows)}, nil
}

func (p *Pipeline) startRun(ctx context.Context) string {
	if p.runs == nil {
		return ""
	}
	id, err := p.runs.Start(ctx)
	if err != nil {
		zap.L().Warn("pipeline: failed to record run start", zap.Error(err))
		return ""
	}
	return id
}

func (p *Pipeline) completeRun(ctx context.Context, runID string, res *Result) {
	if p.runs == nil || runID == "" {
		return
	}
	err := p.runs.Complete(ctx, runID, runlog.Summary{
		PageURL:       res.PageURL,
		RowsStaged:    res.StagingRows,
		RowsAppended:  res.NewRows,
		SkippedRates:  res.Report.SkippedRates,
		MissingDates:  res.Report.MissingDates,
		UnmappedFuels: res.Report.UnmappedFuels,
	})
	if err != nil {
		zap.L().Warn("pipeline: failed to record run completion", zap.Error(err))
	}
}

func (p *Pipeline) failRun(ctx context.Context, runID string, runErr error) {
	if p.runs == nil || runID == "" {
		return
	}
	if err := p.runs.Fail(ctx, runID, runErr.Error()); err != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.Error(err))
	}
}
