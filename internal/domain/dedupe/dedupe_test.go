package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/lumina-social/lumina/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh deduper", t, func() {
		d := dedupe.New()

		Convey("When recording a new id", func() {
			seen := d.SeenAndRecord(ctx, "act-1")

			Convey("Then it is not seen the first time", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And it is seen the second time", func() {
				So(d.SeenAndRecord(ctx, "act-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an id", func() {
			d.SeenAndRecord(ctx, "act-2")
			d.Unrecord(ctx, "act-2")

			Convey("Then it can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "act-2"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to a small size", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(4))

		Convey("When recording far more ids than the bound", func() {
			for i := 0; i < 40; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("act-%d", i))
			}

			Convey("Then memory stays bounded near twice the limit", func() {
				So(d.Size(), ShouldBeLessThanOrEqualTo, 8)
			})

			Convey("And the most recent id is still recognized", func() {
				So(d.SeenAndRecord(ctx, "act-39"), ShouldBeTrue)
			})
		})
	})
}
