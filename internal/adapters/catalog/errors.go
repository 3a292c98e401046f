package catalog

import (
	"errors"
)

// Sentinel kinds for catalog client errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
)
