package personalization_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/personalization"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCatalog struct {
	pages       map[int][]model.Track
	pageErr     map[int]error
	tracks      map[string]model.Track
	users       map[string]model.Artist
	userTracks  map[string][]model.Track
	trendCalls  atomic.Int32
	detailCalls atomic.Int32
}

func (f *fakeCatalog) Trending(_ context.Context, _, offset int) ([]model.Track, error) {
	f.trendCalls.Add(1)
	if err := f.pageErr[offset]; err != nil {
		return nil, err
	}
	return f.pages[offset], nil
}

func (f *fakeCatalog) Track(_ context.Context, id string) (model.Track, error) {
	f.detailCalls.Add(1)
	track, ok := f.tracks[id]
	if !ok {
		return model.Track{}, errors.New("track not found")
	}
	return track, nil
}

func (f *fakeCatalog) User(_ context.Context, id string) (model.Artist, error) {
	user, ok := f.users[id]
	if !ok {
		return model.Artist{}, errors.New("user not found")
	}
	return user, nil
}

func (f *fakeCatalog) UserTracks(_ context.Context, id string, _, _ int) ([]model.Track, error) {
	tracks, ok := f.userTracks[id]
	if !ok {
		return nil, errors.New("no tracks")
	}
	return tracks, nil
}

func poolTrack(artistID, genre, mood string, plays, followers int) model.Track {
	return model.Track{
		ID:        "pool-" + artistID,
		Genre:     genre,
		Mood:      mood,
		PlayCount: plays,
		Artist:    model.Artist{ID: artistID, Name: "Artist " + artistID, FollowerCount: followers},
		CreatedAt: time.Now(),
	}
}

func followActivity(artistID string) model.Activity {
	return model.Activity{Action: model.ActionFollowArtist, ArtistID: artistID, Timestamp: time.Now()}
}

func likeActivity(trackID string) model.Activity {
	return model.Activity{Action: model.ActionLikeTrack, TrackID: trackID, Timestamp: time.Now()}
}

func TestDiscoveryRails(t *testing.T) {
	Convey("Given a viewer with no interaction history", t, func() {
		catalog := &fakeCatalog{}
		engine := personalization.NewEngine(catalog)

		rails, err := engine.DiscoveryRails(context.Background(), nil)

		Convey("Then the result is empty and no network call is made", func() {
			So(err, ShouldBeNil)
			So(rails, ShouldBeEmpty)
			So(catalog.trendCalls.Load(), ShouldEqual, 0)
			So(catalog.detailCalls.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given both trending pages fail", t, func() {
		boom := errors.New("catalog down")
		catalog := &fakeCatalog{pageErr: map[int]error{0: boom, 100: errors.New("also down")}}
		engine := personalization.NewEngine(catalog)

		_, err := engine.DiscoveryRails(context.Background(), []model.Activity{followActivity("seed")})

		Convey("Then the failure propagates", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given one trending page fails", t, func() {
		pool := make([]model.Track, 0, 8)
		for i := 0; i < 8; i++ {
			pool = append(pool, poolTrack(fmt.Sprintf("cand-%d", i), "electronic", "hype", 5000+i*100, 200))
		}
		catalog := &fakeCatalog{
			pages:   map[int][]model.Track{0: pool},
			pageErr: map[int]error{100: errors.New("flaky page")},
		}
		engine := personalization.NewEngine(catalog)

		rails, err := engine.DiscoveryRails(context.Background(), []model.Activity{followActivity("seed")})

		Convey("Then the engine degrades to partial data", func() {
			So(err, ShouldBeNil)
			So(rails, ShouldNotBeEmpty)
		})
	})

	Convey("Given a viewer with follows and likes", t, func() {
		pool := []model.Track{poolTrack("seed", "house", "groovy", 90_000, 800)} // already followed
		for i := 0; i < 10; i++ {
			pool = append(pool, poolTrack(fmt.Sprintf("cand-house-%d", i), "house", "groovy", 40_000-i*1000, 300))
		}
		for i := 0; i < 6; i++ {
			pool = append(pool, poolTrack(fmt.Sprintf("cand-rock-%d", i), "rock", "angry", 25_000-i*1000, 400))
		}
		for i := 0; i < 4; i++ {
			pool = append(pool, poolTrack(fmt.Sprintf("cand-ambient-%d", i), "ambient", "calm", 2000-i*100, 900))
		}
		catalog := &fakeCatalog{
			pages: map[int][]model.Track{0: pool, 100: nil},
			tracks: map[string]model.Track{
				"liked-1": {ID: "liked-1", Genre: "House", Mood: "Groovy"},
				"liked-2": {ID: "liked-2", Genre: "house", Mood: "groovy"},
			},
			users: map[string]model.Artist{
				"seed": {ID: "seed", Name: "Seed Artist"},
			},
			userTracks: map[string][]model.Track{
				"seed": {{ID: "s1", Genre: "House"}, {ID: "s2", Genre: "House"}},
			},
		}
		engine := personalization.NewEngine(catalog)
		activities := []model.Activity{
			followActivity("seed"),
			likeActivity("liked-1"),
			likeActivity("liked-2"),
		}

		rails, err := engine.DiscoveryRails(context.Background(), activities)
		So(err, ShouldBeNil)

		Convey("Then rails appear in fixed order", func() {
			So(len(rails), ShouldBeGreaterThanOrEqualTo, 2)
			So(rails[0].ID, ShouldEqual, personalization.RailBecauseFollowed)
			So(rails[1].ID, ShouldEqual, personalization.RailSimilarLikes)
		})

		Convey("Then the first rail is titled after the seed artist", func() {
			So(rails[0].Title, ShouldEqual, "Because You Followed Seed Artist")
		})

		Convey("Then followed and backed artists never appear in interaction-filtered rails", func() {
			for _, artist := range rails[0].Artists {
				So(artist.ID, ShouldNotEqual, "seed")
			}
		})

		Convey("Then no artist appears in two rails", func() {
			seen := map[string]bool{}
			for _, rail := range rails {
				for _, artist := range rail.Artists {
					So(seen[artist.ID], ShouldBeFalse)
					seen[artist.ID] = true
				}
			}
		})

		Convey("Then each rail holds at most six artists", func() {
			for _, rail := range rails {
				So(len(rail.Artists), ShouldBeLessThanOrEqualTo, 6)
			}
		})

		Convey("Then the similar-likes subtitle names the preferred genres", func() {
			So(rails[1].Subtitle, ShouldContainSubstring, "House")
		})
	})

	Convey("Given likes concentrated in one genre with a second minority genre", t, func() {
		pool := []model.Track{
			poolTrack("cand-techno", "techno", "dark", 12_000, 200),
			poolTrack("cand-ambient", "ambient", "calm", 9_000, 200),
		}
		catalog := &fakeCatalog{
			pages: map[int][]model.Track{0: pool},
			tracks: map[string]model.Track{
				"liked-1": {ID: "liked-1", Genre: "Techno"},
				"liked-2": {ID: "liked-2", Genre: "techno"},
				"liked-3": {ID: "liked-3", Genre: "Ambient"},
			},
		}
		engine := personalization.NewEngine(catalog)
		activities := []model.Activity{
			likeActivity("liked-1"),
			likeActivity("liked-2"),
			likeActivity("liked-3"),
		}

		rails, err := engine.DiscoveryRails(context.Background(), activities)
		So(err, ShouldBeNil)

		Convey("Then the subtitle lists genres by like frequency, not alphabetically", func() {
			So(rails[0].ID, ShouldEqual, personalization.RailSimilarLikes)
			So(rails[0].Subtitle, ShouldContainSubstring, "Techno · Ambient")
		})
	})

	Convey("Given liked-track detail lookups all fail", t, func() {
		pool := []model.Track{
			poolTrack("cand-1", "house", "", 10_000, 100),
			poolTrack("cand-2", "rock", "", 8_000, 100),
		}
		catalog := &fakeCatalog{pages: map[int][]model.Track{0: pool}}
		engine := personalization.NewEngine(catalog)

		rails, err := engine.DiscoveryRails(context.Background(), []model.Activity{likeActivity("gone")})

		Convey("Then there is no similar-likes rail but rising still builds", func() {
			So(err, ShouldBeNil)
			for _, rail := range rails {
				So(rail.ID, ShouldNotEqual, personalization.RailSimilarLikes)
			}
			So(rails, ShouldNotBeEmpty)
			So(rails[len(rails)-1].ID, ShouldEqual, personalization.RailRisingGraph)
		})
	})
}
