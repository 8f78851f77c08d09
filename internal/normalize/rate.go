package normalize

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CleanRate parses a published rate cell of the form "<number> <suffix>",
// e.g. "28.8 cents per litre". The leading whitespace-separated token must
// be a non-negative decimal; anything else is ErrRateParse.
func CleanRate(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, eris.Wrap(ErrRateParse, "normalize: empty rate")
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, eris.Wrapf(ErrRateParse, "normalize: parse rate %q", text)
	}
	if v < 0 {
		return 0, eris.Wrapf(ErrRateParse, "normalize: negative rate %q", text)
	}

	return v, nil
}
