// Package ledger defines the interaction-ledger store interface and errors.
package ledger

import (
	"context"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank       int    `json:"rank"`
	Wallet     string `json:"wallet"`
	Points     int    `json:"points"`
	Activities int    `json:"activities"`
}

// Store provides read/write access to the interaction ledger.
type Store interface {
	// Append records a valued activity against a wallet and returns the
	// wallet's new point total.
	Append(ctx context.Context, wallet string, activity model.Activity) (int, error)

	// Record returns a wallet's full ledger record.
	// Returns ErrNotFound if the wallet is unknown.
	Record(ctx context.Context, wallet string) (model.LedgerRecord, error)

	// All returns every ledger record in leaderboard order
	// (points desc, wallet asc).
	All(ctx context.Context) []model.LedgerRecord

	// Rank returns the current rank entry for a wallet.
	// Returns ErrNotFound if the wallet is unknown.
	Rank(ctx context.Context, wallet string) (Entry, error)

	// TopN returns the top-N entries ordered by points desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of wallets tracked in the ledger.
	Count(ctx context.Context) int
}
