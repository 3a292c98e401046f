package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/lumina-social/lumina/internal/adapters/mq/queue"
	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/rewards"
	"github.com/lumina-social/lumina/pkg/logger"
)

type appendCall struct {
	wallet   string
	activity model.Activity
}

type recordingAppender struct {
	mu    sync.Mutex
	calls []appendCall
}

func (a *recordingAppender) Append(_ context.Context, wallet string, activity model.Activity) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, appendCall{wallet: wallet, activity: activity})
	return activity.Points, nil
}

func (a *recordingAppender) snapshot() []appendCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]appendCall, len(a.calls))
	copy(out, a.calls)
	return out
}

func waitFor(check func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return check()
}

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker over a live queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewMemoryQueue(queue.WithCapacity(16))
		appender := &recordingAppender{}
		w := NewLedgerWorker(q, rewards.NewValuer(), appender, WithName("worker-test"))

		go w.Run(ctx)

		Convey("When a known action is submitted", func() {
			ok := q.Enqueue(ctx, queue.Submission{
				Wallet: "wallet-1",
				Activity: model.Activity{
					ID:        "a1",
					Action:    model.ActionFollowArtist,
					Timestamp: time.Now(),
				},
			})
			So(ok, ShouldBeTrue)

			Convey("Then it is valued and appended to the ledger", func() {
				So(waitFor(func() bool { return len(appender.snapshot()) == 1 }), ShouldBeTrue)

				calls := appender.snapshot()
				So(calls[0].wallet, ShouldEqual, "wallet-1")
				So(calls[0].activity.ID, ShouldEqual, "a1")
				So(calls[0].activity.Points, ShouldEqual, 10)
			})
		})

		Convey("When an unknown action is submitted", func() {
			ok := q.Enqueue(ctx, queue.Submission{
				Wallet: "wallet-1",
				Activity: model.Activity{
					ID:        "a2",
					Action:    model.Action("TELEPORT"),
					Timestamp: time.Now(),
				},
			})
			So(ok, ShouldBeTrue)

			q.Enqueue(ctx, queue.Submission{
				Wallet: "wallet-1",
				Activity: model.Activity{
					ID:        "a3",
					Action:    model.ActionLikeTrack,
					Timestamp: time.Now(),
				},
			})

			Convey("Then the unknown action is dropped and later work continues", func() {
				So(waitFor(func() bool { return len(appender.snapshot()) == 1 }), ShouldBeTrue)

				calls := appender.snapshot()
				So(calls[0].activity.ID, ShouldEqual, "a3")
				So(calls[0].activity.Points, ShouldEqual, 5)
			})
		})

		Reset(func() {
			_ = q.Close()
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx := context.Background()

		q := queue.NewMemoryQueue(queue.WithCapacity(4))
		appender := &recordingAppender{}
		w := NewLedgerWorker(q, rewards.NewValuer(), appender)

		go w.Run(ctx)

		Convey("When shut down", func() {
			err := w.Shutdown(ctx)

			Convey("Then it stops cleanly", func() {
				So(err, ShouldBeNil)
			})
		})

		Reset(func() {
			_ = q.Close()
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a worker pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewMemoryQueue(queue.WithCapacity(64))
		appender := &recordingAppender{}
		pool := NewPool(3, q, rewards.NewValuer(), appender)

		So(pool.Size(), ShouldEqual, 3)
		pool.Start(ctx)

		Convey("When submissions arrive", func() {
			for i := 0; i < 20; i++ {
				ok := q.Enqueue(ctx, queue.Submission{
					Wallet: "wallet-1",
					Activity: model.Activity{
						ID:        "a" + string(rune('a'+i)),
						Action:    model.ActionStreamTrack,
						Timestamp: time.Now(),
					},
				})
				So(ok, ShouldBeTrue)
			}

			Convey("Then all are processed across the pool", func() {
				So(waitFor(func() bool { return len(appender.snapshot()) == 20 }), ShouldBeTrue)
			})

			Convey("And shutdown drains and stops the workers", func() {
				So(waitFor(func() bool { return len(appender.snapshot()) == 20 }), ShouldBeTrue)
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When created with a non-positive count", func() {
			fallback := NewPool(0, q, rewards.NewValuer(), appender)

			Convey("Then a CPU-proportional default is used", func() {
				So(fallback.Size(), ShouldBeGreaterThan, 0)
			})
		})
	})
}
