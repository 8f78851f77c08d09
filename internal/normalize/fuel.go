package normalize

import "github.com/sells-group/ftc-sync/internal/model"

// MapFuelType looks up a fuel description against the fixed mapping.
// Unknown descriptions return "" and propagate as a data-quality gap,
// not a failure.
func MapFuelType(description string) model.FuelTypeCode {
	return model.FuelTypeByDescription[description]
}
