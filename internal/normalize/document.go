package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ftc-sync/internal/model"
)

// rawPeriod is the decoded shape of a single period entry. Pointers
// distinguish "absent" from "empty" so schema violations are caught.
type rawPeriod struct {
	Period *string          `json:"Period"`
	Data   *[]map[string]any `json:"Data"`
}

// ParseDocument validates the extractor's raw JSON and produces a typed
// document. Period entries are kept in the order they appear in the JSON
// text, which makes downstream emission deterministic for a given document.
//
// All structural violations (missing top-level key, non-object entries,
// missing Period or Data) are ErrSchema-classed.
func ParseDocument(raw []byte) (*model.RateDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, eris.Wrap(ErrSchema, "normalize: document is not a JSON object")
	}

	var doc *model.RateDocument
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(ErrSchema, "normalize: malformed document")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, eris.Wrap(ErrSchema, "normalize: malformed document")
		}

		if key != model.DocumentKey {
			// Unrelated top-level keys are allowed; consume and move on.
			var sink any
			if err := dec.Decode(&sink); err != nil {
				return nil, eris.Wrap(ErrSchema, "normalize: malformed document")
			}
			continue
		}

		doc, err = parsePeriods(dec)
		if err != nil {
			return nil, err
		}
	}

	if doc == nil {
		return nil, eris.Wrapf(ErrSchema, "normalize: key %q not found", model.DocumentKey)
	}
	return doc, nil
}

func parsePeriods(dec *json.Decoder) (*model.RateDocument, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, eris.Wrapf(ErrSchema, "normalize: %q is not an object", model.DocumentKey)
	}

	doc := &model.RateDocument{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(ErrSchema, "normalize: malformed period entry")
		}
		label, ok := tok.(string)
		if !ok {
			return nil, eris.Wrap(ErrSchema, "normalize: malformed period entry")
		}

		var entry rawPeriod
		if err := dec.Decode(&entry); err != nil {
			return nil, eris.Wrapf(ErrSchema, "normalize: period %q is not a table object", label)
		}
		if entry.Period == nil {
			return nil, eris.Wrapf(ErrSchema, "normalize: period %q missing Period", label)
		}
		if entry.Data == nil {
			return nil, eris.Wrapf(ErrSchema, "normalize: period %q missing Data", label)
		}

		rows := make([]map[string]string, 0, len(*entry.Data))
		for _, raw := range *entry.Data {
			row := make(map[string]string, len(raw))
			for k, v := range raw {
				row[k] = coerceString(v)
			}
			rows = append(rows, row)
		}

		doc.Periods = append(doc.Periods, model.PeriodTable{
			Label: label,
			Title: *entry.Period,
			Rows:  rows,
		})
	}

	// Consume the closing brace of the periods object.
	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(ErrSchema, "normalize: malformed period entry")
	}

	return doc, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return eris.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// coerceString renders a decoded JSON value as a cell string. The extractor
// sometimes returns bare numbers where the page showed "28.8 cents".
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
