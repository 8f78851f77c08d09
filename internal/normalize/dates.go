package normalize

import (
	"regexp"
	"time"
)

// periodPattern matches titles like "1 July 2023 to 30 June 2024".
var periodPattern = regexp.MustCompile(`(\d{1,2} \w+ \d{4}) to (\d{1,2} \w+ \d{4})`)

// titleLayout parses day month-name year with English month names.
const titleLayout = "2 January 2006"

// ExtractDates pulls the start and end dates out of a period title.
// A title that doesn't match the pattern yields (nil, nil); this is a
// documented fallback, not an error. Callers count such rows.
func ExtractDates(title string) (*time.Time, *time.Time) {
	m := periodPattern.FindStringSubmatch(title)
	if m == nil {
		return nil, nil
	}

	start, err := time.Parse(titleLayout, m[1])
	if err != nil {
		return nil, nil
	}
	end, err := time.Parse(titleLayout, m[2])
	if err != nil {
		return nil, nil
	}

	return &start, &end
}
