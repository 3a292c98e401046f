package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/rewards"
	"github.com/lumina-social/lumina/pkg/logger"
)

const (
	drainPollInterval = 200 * time.Millisecond
	drainWait         = 30 * time.Second
)

type leaderboardEntry struct {
	Wallet string `json:"wallet"`
	Points int    `json:"points"`
}

type leaderboardPayload struct {
	Entries []leaderboardEntry `json:"entries"`
	Count   int                `json:"count"`
}

// verify computes expected per-wallet totals locally, waits for the service
// to drain, and compares the served leaderboard against the expectation.
func verify(ctx context.Context, cfg *Config, activities []activityPayload, stats *Stats) error {
	log := logger.Get().Named("loadgen")
	valuer := rewards.NewValuer()

	expected := make(map[string]int)
	seen := make(map[string]struct{}, len(activities))
	for _, p := range activities {
		if _, dup := seen[p.ActivityID]; dup {
			continue
		}
		seen[p.ActivityID] = struct{}{}
		points, err := valuer.Value(ctx, model.Action(p.Action))
		if err != nil {
			continue
		}
		expected[p.Wallet] += points
	}

	want := make([]leaderboardEntry, 0, len(expected))
	for wallet, points := range expected {
		want = append(want, leaderboardEntry{Wallet: wallet, Points: points})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].Points != want[j].Points {
			return want[i].Points > want[j].Points
		}
		return want[i].Wallet < want[j].Wallet
	})
	if len(want) > cfg.TopN {
		want = want[:cfg.TopN]
	}

	client := &http.Client{Timeout: cfg.Timeout}
	url := fmt.Sprintf("%s/leaderboard?limit=%d", cfg.BaseURL, cfg.TopN)

	deadline := time.Now().Add(drainWait)
	var got leaderboardPayload
	for time.Now().Before(deadline) {
		if err := getJSON(ctx, client, url, &got); err != nil {
			return err
		}
		if matches(want, got.Entries) {
			stats.Verified = true
			log.Info(ctx, "leaderboard verified", logger.Int("entries", got.Count))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}

	log.Warn(ctx, "leaderboard mismatch after drain window",
		logger.Int("expected", len(want)),
		logger.Int("got", got.Count))
	return nil
}

func matches(want, got []leaderboardEntry) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if got[i].Wallet != want[i].Wallet || got[i].Points != want[i].Points {
			return false
		}
	}
	return true
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("leaderboard fetch: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
