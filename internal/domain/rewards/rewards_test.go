package rewards_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/rewards"
)

func TestValuer(t *testing.T) {
	Convey("Given the stock point catalog", t, func() {
		valuer := rewards.NewValuer()
		ctx := context.Background()

		Convey("each action kind has its fixed value", func() {
			cases := map[model.Action]int{
				model.ActionCreateProfile:     100,
				model.ActionFollowArtist:      10,
				model.ActionLikeTrack:         5,
				model.ActionComment:           15,
				model.ActionBackArtist:        20,
				model.ActionStreamTrack:       2,
				model.ActionDailyLogin:        20,
				model.ActionReferFriend:       500,
				model.ActionWeeklyTopListener: 1000,
			}
			for action, want := range cases {
				points, err := valuer.Value(ctx, action)
				So(err, ShouldBeNil)
				So(points, ShouldEqual, want)
			}
		})

		Convey("an unknown action is rejected", func() {
			_, err := valuer.Value(ctx, model.Action("TELEPORT"))

			So(errors.Is(err, rewards.ErrUnknownAction), ShouldBeTrue)
			So(valuer.Known(model.Action("TELEPORT")), ShouldBeFalse)
		})
	})
}

func TestPointOverrides(t *testing.T) {
	Convey("Given a valuer with overrides", t, func() {
		valuer := rewards.NewValuer(rewards.WithPointOverrides(map[string]int{
			"LIKE_TRACK": 50,
			"TELEPORT":   7,  // not in the catalog
			"COMMENT":    -3, // non-positive
		}))
		ctx := context.Background()

		Convey("a valid override replaces the stock value", func() {
			points, err := valuer.Value(ctx, model.ActionLikeTrack)
			So(err, ShouldBeNil)
			So(points, ShouldEqual, 50)
		})

		Convey("an override cannot introduce a new action", func() {
			So(valuer.Known(model.Action("TELEPORT")), ShouldBeFalse)
		})

		Convey("a non-positive override is ignored", func() {
			points, err := valuer.Value(ctx, model.ActionComment)
			So(err, ShouldBeNil)
			So(points, ShouldEqual, 15)
		})
	})
}
