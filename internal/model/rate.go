package model

import (
	"strconv"
	"strings"
	"time"
)

// DocumentKey is the top-level key the extractor must return. Documents
// without it are structurally invalid.
const DocumentKey = "Rates for fuel acquired"

// Field names the extractor is expected to emit inside each Data entry.
const (
	FieldHeavyVehicles = "Used in heavy vehicles"
	FieldOtherUses     = "All other business uses"
	FieldFuelType      = "Eligible fuel type"
)

// UnitCentsPerLiter is the unit for every published rate.
const UnitCentsPerLiter = "cents per liter"

// DateLayout is the canonical textual form for rate period dates.
const DateLayout = "01/02/2006"

// FuelTypeCode classifies an eligible fuel description. Empty means the
// description is not in the known mapping (a data-quality gap, not an error).
type FuelTypeCode string

const (
	FuelTypeLiquid  FuelTypeCode = "FT1"
	FuelTypeBlended FuelTypeCode = "FT2"
	FuelTypeLPG     FuelTypeCode = "FT3"
	FuelTypeLNGCNG  FuelTypeCode = "FT4"
	FuelTypeE85     FuelTypeCode = "FT5"
	FuelTypeB100    FuelTypeCode = "FT6"
)

// FuelTypeByDescription maps the exact published fuel descriptions to codes.
// Lookup is exact-string; no fuzzy matching.
var FuelTypeByDescription = map[string]FuelTypeCode{
	"Liquid fuels (for example, diesel or petrol)":                FuelTypeLiquid,
	"Blended fuels: B5, B20, E10":                                 FuelTypeBlended,
	"Liquefied petroleum gas (LPG)":                               FuelTypeLPG,
	"Liquefied natural gas (LNG) or compressed natural gas (CNG)": FuelTypeLNGCNG,
	"Blended fuel: E85":                                           FuelTypeE85,
	"B100":                                                        FuelTypeB100,
}

// RoadType is the usage context of a rate.
type RoadType string

const (
	RoadOn  RoadType = "R1"
	RoadOff RoadType = "R2"
)

// Label returns the human-readable road label.
func (r RoadType) Label() string {
	if r == RoadOn {
		return "On-Road"
	}
	return "Off-Road"
}

// PeriodTable is one period's table from the raw document, in document order.
type PeriodTable struct {
	Label string
	Title string
	Rows  []map[string]string
}

// RateDocument is the validated form of the extractor's raw JSON.
type RateDocument struct {
	Periods []PeriodTable
}

// StagingRow is one (period x data entry) combination before road-variant
// expansion. Fields carries the entry's columns verbatim.
type StagingRow struct {
	Title  string
	Fields map[string]string
}

// RateRow is the normalized unit of record: one rate for one period, fuel
// type and road-use context. Nil dates mark a period title that failed date
// extraction; they are emitted, flagged and counted rather than dropped.
type RateRow struct {
	StartDate *time.Time   `json:"start_date"`
	EndDate   *time.Time   `json:"end_date"`
	FuelType  FuelTypeCode `json:"fuel_type"`
	RoadType  RoadType     `json:"road_type"`
	Unit      string       `json:"unit"`
	Rate      float64      `json:"rate"`
	Fuel      string       `json:"fuel"`
	Road      string       `json:"road"`
}

// Key returns the row's identity: the full eight-field tuple. Dates are
// rendered in canonical form so two representations of the same calendar
// date compare equal.
func (r RateRow) Key() string {
	return strings.Join([]string{
		FormatDate(r.StartDate),
		FormatDate(r.EndDate),
		string(r.FuelType),
		string(r.RoadType),
		r.Unit,
		strconv.FormatFloat(r.Rate, 'f', -1, 64),
		r.Fuel,
		r.Road,
	}, "\x1f")
}

// FormatDate renders a date in the canonical month/day/year form, or ""
// for an unknown date.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
