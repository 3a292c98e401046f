package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumina-social/lumina/pkg/logger"
)

type ackPayload struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// submit drives the payloads through POST /activities with a worker pool
// and accumulates per-outcome counters into stats.
func submit(ctx context.Context, cfg *Config, activities []activityPayload, stats *Stats) error {
	log := logger.Get().Named("loadgen")
	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/activities"

	var accepted, duplicates, failed, submitted int64

	jobs := make(chan activityPayload, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				switch post(ctx, client, url, p) {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
				case outcomeDuplicate:
					atomic.AddInt64(&duplicates, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range activities {
			select {
			case <-ctx.Done():
				return
			case jobs <- p:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Accepted = int(atomic.LoadInt64(&accepted))
	stats.Duplicates = int(atomic.LoadInt64(&duplicates))
	stats.Failed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "submission finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed))
	return ctx.Err()
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAccepted
	outcomeDuplicate
)

// post submits one payload. 429 responses are retried with backoff until
// the context expires.
func post(ctx context.Context, client *http.Client, url string, p activityPayload) outcome {
	body, err := json.Marshal(p)
	if err != nil {
		return outcomeFailed
	}

	backoff := 50 * time.Millisecond
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return outcomeFailed
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return outcomeFailed
		}
		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return outcomeFailed
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			return outcomeAccepted
		case http.StatusOK:
			var ack ackPayload
			if err := json.Unmarshal(data, &ack); err == nil && ack.Duplicate {
				return outcomeDuplicate
			}
			return outcomeAccepted
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return outcomeFailed
			case <-time.After(backoff):
			}
			if backoff < time.Second {
				backoff *= 2
			}
		default:
			return outcomeFailed
		}
	}
}
