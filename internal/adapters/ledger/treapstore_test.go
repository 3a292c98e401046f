package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/lumina-social/lumina/internal/domain/model"
)

func activity(id string, action model.Action, points int) model.Activity {
	return model.Activity{
		ID:        id,
		Action:    action,
		Points:    points,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAppendAndRecord(t *testing.T) {
	Convey("Given an empty ledger store", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx)
		defer store.Close() //nolint:errcheck

		Convey("When appending activities for a wallet", func() {
			total, err := store.Append(ctx, "wallet-a", activity("a1", model.ActionFollowArtist, 10))
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 10)

			total, err = store.Append(ctx, "wallet-a", activity("a2", model.ActionBackArtist, 20))
			So(err, ShouldBeNil)

			Convey("Then the point total accumulates", func() {
				So(total, ShouldEqual, 30)
			})

			Convey("And the record lists activities newest first", func() {
				rec, err := store.Record(ctx, "wallet-a")
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 30)
				So(rec.Activities, ShouldHaveLength, 2)
				So(rec.Activities[0].ID, ShouldEqual, "a2")
				So(rec.Activities[1].ID, ShouldEqual, "a1")
			})
		})

		Convey("When appending with an empty wallet", func() {
			_, err := store.Append(ctx, "", activity("a1", model.ActionComment, 15))

			Convey("Then the append is rejected", func() {
				So(errors.Is(err, ErrEmptyWallet), ShouldBeTrue)
			})
		})

		Convey("When reading an unknown wallet", func() {
			_, err := store.Record(ctx, "nobody")

			Convey("Then not-found is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestTopN(t *testing.T) {
	Convey("Given a populated ledger store", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx)
		defer store.Close() //nolint:errcheck

		_, _ = store.Append(ctx, "wallet-c", activity("c1", model.ActionBackArtist, 20))
		_, _ = store.Append(ctx, "wallet-a", activity("a1", model.ActionStreamTrack, 2))
		_, _ = store.Append(ctx, "wallet-b", activity("b1", model.ActionBackArtist, 20))
		_, _ = store.Append(ctx, "wallet-d", activity("d1", model.ActionReferFriend, 500))

		Convey("When fetching the top entries", func() {
			entries, err := store.TopN(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then entries are ordered points desc, wallet asc on ties", func() {
				So(entries, ShouldHaveLength, 4)
				So(entries[0].Wallet, ShouldEqual, "wallet-d")
				So(entries[1].Wallet, ShouldEqual, "wallet-b")
				So(entries[2].Wallet, ShouldEqual, "wallet-c")
				So(entries[3].Wallet, ShouldEqual, "wallet-a")
			})

			Convey("And tied wallets share a rank with a consecutive next rank", func() {
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].Rank, ShouldEqual, 2)
				So(entries[3].Rank, ShouldEqual, 3)
			})
		})

		Convey("When fetching fewer than available", func() {
			entries, err := store.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Wallet, ShouldEqual, "wallet-d")
		})

		Convey("When the limit is invalid", func() {
			_, err := store.TopN(ctx, 0)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a populated ledger store", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx)
		defer store.Close() //nolint:errcheck

		_, _ = store.Append(ctx, "wallet-a", activity("a1", model.ActionFollowArtist, 10))
		_, _ = store.Append(ctx, "wallet-b", activity("b1", model.ActionBackArtist, 20))
		_, _ = store.Append(ctx, "wallet-c", activity("c1", model.ActionBackArtist, 20))

		Convey("When asking for a wallet's rank", func() {
			entry, err := store.Rank(ctx, "wallet-a")

			Convey("Then the rank reflects tie handling above it", func() {
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.Points, ShouldEqual, 10)
				So(entry.Activities, ShouldEqual, 1)
			})
		})

		Convey("When asking for an unknown wallet", func() {
			_, err := store.Rank(ctx, "nobody")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When a wallet overtakes another", func() {
			_, _ = store.Append(ctx, "wallet-a", activity("a2", model.ActionReferFriend, 500))

			entry, err := store.Rank(ctx, "wallet-a")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 1)
			So(entry.Points, ShouldEqual, 510)
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given a populated ledger store", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx)
		defer store.Close() //nolint:errcheck

		_, _ = store.Append(ctx, "wallet-b", activity("b1", model.ActionLikeTrack, 5))
		_, _ = store.Append(ctx, "wallet-a", activity("a1", model.ActionComment, 15))

		Convey("When listing all records", func() {
			records := store.All(ctx)

			Convey("Then records come back in leaderboard order", func() {
				So(records, ShouldHaveLength, 2)
				So(records[0].Wallet, ShouldEqual, "wallet-a")
				So(records[1].Wallet, ShouldEqual, "wallet-b")
				So(records[0].Activities, ShouldHaveLength, 1)
			})
		})

		Convey("And Count matches", func() {
			So(store.Count(ctx), ShouldEqual, 2)
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a ledger store with entries", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx, WithTopCacheSize(2), WithSnapshotInterval(time.Hour))
		defer store.Close() //nolint:errcheck

		_, _ = store.Append(ctx, "wallet-a", activity("a1", model.ActionWeeklyTopListener, 1000))
		_, _ = store.Append(ctx, "wallet-b", activity("b1", model.ActionDailyLogin, 20))
		_, _ = store.Append(ctx, "wallet-c", activity("c1", model.ActionStreamTrack, 2))

		Convey("When a snapshot is published", func() {
			store.publishSnapshot()
			snap := store.Snapshot()

			Convey("Then rank and point maps cover every wallet", func() {
				So(snap, ShouldNotBeNil)
				So(snap.RankByWallet, ShouldHaveLength, 3)
				So(snap.RankByWallet["wallet-a"], ShouldEqual, 1)
				So(snap.PointsByWallet["wallet-b"], ShouldEqual, 20)
			})

			Convey("And the top cache is capped with ranks filled in", func() {
				So(snap.TopCache, ShouldHaveLength, 2)
				So(snap.TopCache[0].Wallet, ShouldEqual, "wallet-a")
				So(snap.TopCache[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("Before any snapshot is published", func() {
			fresh := NewTreapStore(ctx, WithSnapshotInterval(time.Hour))
			defer fresh.Close() //nolint:errcheck
			So(fresh.Snapshot(), ShouldBeNil)
		})
	})
}

func TestConcurrentAppends(t *testing.T) {
	Convey("Given concurrent appenders", t, func() {
		ctx := context.Background()
		store := NewTreapStore(ctx)
		defer store.Close() //nolint:errcheck

		const writers = 8
		const perWriter = 50

		done := make(chan struct{}, writers)
		for w := 0; w < writers; w++ {
			go func(w int) {
				wallet := fmt.Sprintf("wallet-%d", w)
				for i := 0; i < perWriter; i++ {
					_, _ = store.Append(ctx, wallet, activity(fmt.Sprintf("%d-%d", w, i), model.ActionStreamTrack, 2))
				}
				done <- struct{}{}
			}(w)
		}
		for w := 0; w < writers; w++ {
			<-done
		}

		Convey("Then every wallet holds its full total", func() {
			So(store.Count(ctx), ShouldEqual, writers)
			for w := 0; w < writers; w++ {
				rec, err := store.Record(ctx, fmt.Sprintf("wallet-%d", w))
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, perWriter*2)
				So(rec.Activities, ShouldHaveLength, perWriter)
			}
		})
	})
}
