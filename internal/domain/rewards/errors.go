package rewards

import "errors"

// Sentinel kinds for reward valuation errors.
var (
	ErrUnknownAction = errors.New("unknown action kind")
)
