// Package loadgen generates synthetic supporter activity and drives it
// through a running service over HTTP, then verifies the leaderboard
// totals against what was submitted.
package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-social/lumina/pkg/logger"
)

// Config controls a load-generation run.
type Config struct {
	BaseURL   string
	Wallets   int
	Activity  int // total activities to submit
	TopN      int
	Workers   int
	Timeout   time.Duration
	DupeRatio float64 // fraction of submissions that reuse an earlier id
}

// Stats accumulates the outcome of a run.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicates int
	Failed     int
	Verified   bool
	Elapsed    time.Duration
}

// Run generates activities, submits them, waits for the pipeline to drain,
// and verifies the leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	start := time.Now()

	activities := generate(cfg)
	stats := &Stats{Generated: len(activities)}
	log.Info(ctx, "generated activities",
		logger.Int("count", len(activities)),
		logger.Int("wallets", cfg.Wallets))

	if err := submit(ctx, cfg, activities, stats); err != nil {
		return stats, fmt.Errorf("submit: %w", err)
	}

	if err := verify(ctx, cfg, activities, stats); err != nil {
		return stats, fmt.Errorf("verify: %w", err)
	}

	stats.Elapsed = time.Since(start)
	log.Info(ctx, "run complete",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Bool("verified", stats.Verified),
		logger.String("elapsed", stats.Elapsed.String()))
	return stats, nil
}
