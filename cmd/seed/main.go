// Command seed floods a running lumina instance with synthetic supporter
// activity and verifies the resulting leaderboard.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/lumina-social/lumina/internal/loadgen"
	"github.com/lumina-social/lumina/pkg/logger"
)

const (
	defaultWallets    = 500
	defaultActivities = 10_000
	defaultTopN       = 50
	defaultTimeout    = 30 * time.Second
	defaultDupeRatio  = 0.05
	runTimeout        = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "base URL of the service")
		wallets    = flag.Int("wallets", defaultWallets, "number of distinct wallets")
		activities = flag.Int("activities", defaultActivities, "number of activities to submit")
		topN       = flag.Int("top", defaultTopN, "leaderboard entries to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*2, "concurrent submit workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		dupeRatio  = flag.Float64("dupes", defaultDupeRatio, "fraction of duplicate activity ids")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:   *baseURL,
		Wallets:   *wallets,
		Activity:  *activities,
		TopN:      *topN,
		Workers:   *workers,
		Timeout:   *timeout,
		DupeRatio: *dupeRatio,
	}

	stats, err := loadgen.Run(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if !stats.Verified {
		os.Stderr.WriteString("leaderboard verification did not converge\n")
		os.Exit(1)
	}
}
