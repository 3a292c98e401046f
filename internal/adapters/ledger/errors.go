package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound     = errors.New("wallet not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrEmptyWallet  = errors.New("empty wallet address")
)
