package normalize

import "github.com/sells-group/ftc-sync/internal/model"

// ToStagingTable validates a raw extractor document and flattens it into
// one staging row per (period, data entry) pair. Emission order follows
// the document's own order. Structural violations return ErrSchema with
// nothing emitted.
func ToStagingTable(raw []byte) ([]model.StagingRow, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	return Flatten(doc), nil
}

// Flatten turns a validated document into staging rows.
func Flatten(doc *model.RateDocument) []model.StagingRow {
	var rows []model.StagingRow
	for _, p := range doc.Periods {
		for _, entry := range p.Rows {
			fields := make(map[string]string, len(entry))
			for k, v := range entry {
				fields[k] = v
			}
			rows = append(rows, model.StagingRow{
				Title:  p.Title,
				Fields: fields,
			})
		}
	}
	return rows
}
