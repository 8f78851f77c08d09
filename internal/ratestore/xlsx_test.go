package ratestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ftc-sync/internal/model"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleRows() []model.RateRow {
	return []model.RateRow{
		{
			StartDate: date(2023, time.July, 1),
			EndDate:   date(2024, time.June, 30),
			FuelType:  model.FuelTypeLiquid,
			RoadType:  model.RoadOn,
			Unit:      model.UnitCentsPerLiter,
			Rate:      28.8,
			Fuel:      "Liquid fuels (for example, diesel or petrol)",
			Road:      "On-Road",
		},
		{
			StartDate: nil,
			EndDate:   nil,
			FuelType:  model.FuelTypeB100,
			RoadType:  model.RoadOff,
			Unit:      model.UnitCentsPerLiter,
			Rate:      12.7,
			Fuel:      "B100",
			Road:      "Off-Road",
		},
	}
}

func TestWriteAndLoadStaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.xlsx")
	rows := sampleRows()

	require.NoError(t, WriteStaging(path, rows))

	got, err := LoadStaging(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "07/01/2023", model.FormatDate(got[0].StartDate))
	assert.Equal(t, "06/30/2024", model.FormatDate(got[0].EndDate))
	assert.Equal(t, model.FuelTypeLiquid, got[0].FuelType)
	assert.Equal(t, model.RoadOn, got[0].RoadType)
	assert.Equal(t, model.UnitCentsPerLiter, got[0].Unit)
	assert.InDelta(t, 28.8, got[0].Rate, 0.0001)
	assert.Equal(t, "On-Road", got[0].Road)

	// Null dates survive the round trip as nil.
	assert.Nil(t, got[1].StartDate)
	assert.Nil(t, got[1].EndDate)
	assert.Equal(t, model.FuelTypeB100, got[1].FuelType)

	// Identity is preserved across persistence.
	assert.Equal(t, rows[0].Key(), got[0].Key())
	assert.Equal(t, rows[1].Key(), got[1].Key())
}

func TestWriteStagingOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.xlsx")

	require.NoError(t, WriteStaging(path, sampleRows()))
	require.NoError(t, WriteStaging(path, sampleRows()[:1]))

	got, err := LoadStaging(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLoadStagingMissingFile(t *testing.T) {
	_, err := LoadStaging(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrStore), "want ErrStore, got %v", err)
}

func TestLoadHistorical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.xlsx")

	require.NoError(t, Init(path, "rates"))
	got, err := LoadHistorical(path, "rates")
	require.NoError(t, err)
	assert.Empty(t, got)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadHistorical(filepath.Join(dir, "absent.xlsx"), "rates")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrStore))
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := LoadHistorical(path, "wrong")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrStore))
	})
}

func TestReplaceHistorical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")
	require.NoError(t, Init(path, "rates"))

	rows := sampleRows()
	require.NoError(t, ReplaceHistorical(path, "rates", rows))

	got, err := LoadHistorical(path, "rates")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].Key(), got[0].Key())

	// Appending more rows keeps prior order.
	extra := append(rows, model.RateRow{
		StartDate: date(2024, time.July, 1),
		EndDate:   date(2025, time.June, 30),
		FuelType:  model.FuelTypeE85,
		RoadType:  model.RoadOn,
		Unit:      model.UnitCentsPerLiter,
		Rate:      14.2,
		Fuel:      "Blended fuel: E85",
		Road:      "On-Road",
	})
	require.NoError(t, ReplaceHistorical(path, "rates", extra))

	got, err = LoadHistorical(path, "rates")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rows[0].Key(), got[0].Key())
	assert.Equal(t, model.FuelTypeE85, got[2].FuelType)
}

func TestReplaceHistoricalPreservesOtherSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")

	f := xlsx.NewFile()
	notes, err := f.AddSheet("notes")
	require.NoError(t, err)
	notes.AddRow().AddCell().SetString("keep me")
	rates, err := f.AddSheet("rates")
	require.NoError(t, err)
	header := rates.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}
	require.NoError(t, f.Save(path))

	require.NoError(t, ReplaceHistorical(path, "rates", sampleRows()))

	reopened, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := reopened.Sheet["notes"]
	require.True(t, ok, "notes sheet must survive the replace")
	require.NotEmpty(t, sheet.Rows)
	assert.Equal(t, "keep me", sheet.Rows[0].Cells[0].String())
}

func TestReplaceHistoricalMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")
	require.NoError(t, Init(path, "rates"))

	err := ReplaceHistorical(path, "wrong", sampleRows())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrStore))
}

func TestInitLeavesExistingWorkbookAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")
	require.NoError(t, Init(path, "rates"))
	require.NoError(t, ReplaceHistorical(path, "rates", sampleRows()))

	require.NoError(t, Init(path, "rates"))

	got, err := LoadHistorical(path, "rates")
	require.NoError(t, err)
	assert.Len(t, got, 2, "re-init must not clobber existing data")
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"07/01/2023", "07/01/2023"},
		{"7/1/2023", "07/01/2023"},
		{"2023-07-01", "07/01/2023"},
	}
	for _, tt := range tests {
		got := parseDate(tt.in)
		require.NotNil(t, got, "parseDate(%q)", tt.in)
		assert.Equal(t, tt.want, model.FormatDate(got))
	}

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not a date"))
}

func TestSaveAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "update.xlsx")
	require.NoError(t, WriteStaging(path, sampleRows()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "update.xlsx", entries[0].Name())
}
