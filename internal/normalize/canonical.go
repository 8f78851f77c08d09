package normalize

import (
	"go.uber.org/zap"

	"github.com/sells-group/ftc-sync/internal/model"
)

// Report tallies soft data-quality findings from one normalization pass.
type Report struct {
	RowsIn        int // staging rows consumed
	RowsOut       int // canonical rows emitted
	SkippedRates  int // road variants dropped for unparseable rates
	MissingDates  int // staging rows whose title failed date extraction
	UnmappedFuels int // staging rows with a fuel description outside the mapping
}

// roadVariants defines the fixed 1-to-2 expansion: every staging row yields
// an On-Road rate and an Off-Road rate, each read from its own field.
var roadVariants = []struct {
	road  model.RoadType
	field string
}{
	{model.RoadOn, model.FieldHeavyVehicles},
	{model.RoadOff, model.FieldOtherUses},
}

// BuildCanonicalTable expands staging rows into canonical rate rows.
// A variant whose rate cell fails to parse is skipped and counted; no
// per-row problem aborts the rest of the table. Rows with unmatched
// period titles are emitted with nil dates and counted in the report.
func BuildCanonicalTable(staging []model.StagingRow) ([]model.RateRow, *Report) {
	report := &Report{RowsIn: len(staging)}
	rows := make([]model.RateRow, 0, len(staging)*2)

	for _, s := range staging {
		start, end := ExtractDates(s.Title)
		if start == nil {
			report.MissingDates++
			zap.L().Warn("normalize: period title has no extractable dates",
				zap.String("title", s.Title))
		}

		fuel := s.Fields[model.FieldFuelType]
		code := MapFuelType(fuel)
		if code == "" {
			report.UnmappedFuels++
			zap.L().Warn("normalize: unmapped fuel description",
				zap.String("fuel", fuel))
		}

		for _, v := range roadVariants {
			rate, err := CleanRate(s.Fields[v.field])
			if err != nil {
				report.SkippedRates++
				zap.L().Warn("normalize: skipping road variant",
					zap.String("title", s.Title),
					zap.String("field", v.field),
					zap.Error(err))
				continue
			}

			rows = append(rows, model.RateRow{
				StartDate: start,
				EndDate:   end,
				FuelType:  code,
				RoadType:  v.road,
				Unit:      model.UnitCentsPerLiter,
				Rate:      rate,
				Fuel:      fuel,
				Road:      v.road.Label(),
			})
		}
	}

	report.RowsOut = len(rows)
	return rows, report
}
