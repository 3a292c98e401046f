package socialgraph

import (
	"errors"
)

// Sentinel kinds for social-graph client errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
)
