package normalize

import "github.com/rotisserie/eris"

// ErrSchema marks a raw document that is missing required structure. It is
// terminal for the run: nothing is emitted and no artifact is written.
var ErrSchema = eris.New("rate document missing required structure")

// ErrRateParse marks a rate field whose leading token is not a non-negative
// number. It fails that road variant only; other rows continue.
var ErrRateParse = eris.New("rate value is not numeric")
