// Package ratestore persists the staging and historical rate artifacts as
// xlsx workbooks. The staging workbook is overwritten every run; the
// historical workbook is append-only and replaced atomically via a temp
// file and rename.
package ratestore

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ftc-sync/internal/model"
)

// ErrStore marks a missing or unreadable artifact. It is terminal for the
// run and no mutation happens after it.
var ErrStore = eris.New("rates workbook unavailable")

// Header is the exact column order of both artifacts.
var Header = []string{
	"StartDate", "EndDate", "FuelTypeCode", "RoadType",
	"Unit", "Rate", "Fuel", "Road",
}

// StagingSheet is the sheet name of the staging workbook.
const StagingSheet = "update"

// dateLayouts are the accepted textual date forms when reading cells back.
var dateLayouts = []string{
	model.DateLayout,
	"1/2/2006",
	"2006-01-02",
}

// WriteStaging overwrites the staging workbook with the given rows.
func WriteStaging(path string, rows []model.RateRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(StagingSheet)
	if err != nil {
		return eris.Wrap(err, "ratestore: add staging sheet")
	}
	writeRows(sheet, rows)

	if err := saveAtomic(f, path); err != nil {
		return eris.Wrapf(err, "ratestore: write staging %s", path)
	}
	return nil
}

// LoadStaging reads the staging workbook's first sheet.
func LoadStaging(path string) ([]model.RateRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrStore, "ratestore: open staging %s: %v", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrapf(ErrStore, "ratestore: staging %s has no sheets", path)
	}
	return readRows(f.Sheets[0], path)
}

// LoadHistorical reads the named sheet of the historical workbook.
func LoadHistorical(path, sheetName string) ([]model.RateRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrStore, "ratestore: open historical %s: %v", path, err)
	}
	sheet, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Wrapf(ErrStore, "ratestore: sheet %q not found in %s", sheetName, path)
	}
	return readRows(sheet, path)
}

// ReplaceHistorical rewrites the named sheet with the merged table,
// preserving any other sheets in the workbook. The write goes to a temp
// file first and is renamed into place, so readers see either the old
// table or the new one, never a partial write.
func ReplaceHistorical(path, sheetName string, rows []model.RateRow) error {
	src, err := xlsx.OpenFile(path)
	if err != nil {
		return eris.Wrapf(ErrStore, "ratestore: open historical %s: %v", path, err)
	}
	if _, ok := src.Sheet[sheetName]; !ok {
		return eris.Wrapf(ErrStore, "ratestore: sheet %q not found in %s", sheetName, path)
	}

	out := xlsx.NewFile()
	for _, s := range src.Sheets {
		dst, err := out.AddSheet(s.Name)
		if err != nil {
			return eris.Wrapf(err, "ratestore: add sheet %q", s.Name)
		}
		if s.Name == sheetName {
			writeRows(dst, rows)
			continue
		}
		for _, row := range s.Rows {
			dstRow := dst.AddRow()
			for _, cell := range row.Cells {
				dstRow.AddCell().SetString(cell.String())
			}
		}
	}

	if err := saveAtomic(out, path); err != nil {
		return eris.Wrapf(err, "ratestore: replace historical %s", path)
	}
	return nil
}

// Init creates an empty historical workbook with just the header row.
// An existing workbook is left alone.
func Init(path, sheetName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "ratestore: add historical sheet")
	}
	writeRows(sheet, nil)

	if err := saveAtomic(f, path); err != nil {
		return eris.Wrapf(err, "ratestore: init historical %s", path)
	}
	return nil
}

func writeRows(sheet *xlsx.Sheet, rows []model.RateRow) {
	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(model.FormatDate(r.StartDate))
		row.AddCell().SetString(model.FormatDate(r.EndDate))
		row.AddCell().SetString(string(r.FuelType))
		row.AddCell().SetString(string(r.RoadType))
		row.AddCell().SetString(r.Unit)
		row.AddCell().SetString(strconv.FormatFloat(r.Rate, 'f', -1, 64))
		row.AddCell().SetString(r.Fuel)
		row.AddCell().SetString(r.Road)
	}
}

func readRows(sheet *xlsx.Sheet, path string) ([]model.RateRow, error) {
	var rows []model.RateRow
	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}

		cells := make([]string, len(Header))
		for j := range cells {
			if j < len(row.Cells) {
				cells[j] = strings.TrimSpace(row.Cells[j].String())
			}
		}
		if allEmpty(cells) {
			continue
		}

		rate, err := strconv.ParseFloat(cells[5], 64)
		if err != nil {
			return nil, eris.Wrapf(ErrStore, "ratestore: %s row %d: bad rate %q", path, i+1, cells[5])
		}

		rows = append(rows, model.RateRow{
			StartDate: parseDate(cells[0]),
			EndDate:   parseDate(cells[1]),
			FuelType:  model.FuelTypeCode(cells[2]),
			RoadType:  model.RoadType(cells[3]),
			Unit:      cells[4],
			Rate:      rate,
			Fuel:      cells[6],
			Road:      cells[7],
		})
	}
	return rows, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func saveAtomic(f *xlsx.File, path string) error {
	tmp := path + ".tmp"
	if err := f.Save(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
