package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumina-social/lumina/internal/domain/feed"
	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/signals"
	. "github.com/smartystreets/goconvey/convey"
)

type stubCatalog struct {
	tracks []model.Track
	err    error
}

func (s *stubCatalog) Trending(_ context.Context, _, _ int) ([]model.Track, error) {
	return s.tracks, s.err
}

type stubSignals struct {
	out []signals.ArtistSignal
	err error
}

func (s *stubSignals) Undervalued(_ context.Context, _ int) ([]signals.ArtistSignal, error) {
	return s.out, s.err
}

type stubSocial struct {
	notes    map[string][]model.SignalNote
	comments map[string][]model.Comment
	noteErr  error
}

func (s *stubSocial) ArtistSignals(_ context.Context, artistID string, _, _ int) ([]model.SignalNote, error) {
	if s.noteErr != nil {
		return nil, s.noteErr
	}
	return s.notes[artistID], nil
}

func (s *stubSocial) Comments(_ context.Context, trackID string, _, _ int) ([]model.Comment, error) {
	return s.comments[trackID], nil
}

func ts(hour int) time.Time {
	return time.Date(2026, 5, 1, hour, 0, 0, 0, time.UTC)
}

func TestGlobalEvents(t *testing.T) {
	artistA := signals.ArtistSignal{
		Artist:      model.Artist{ID: "a1", Name: "Nova", Handle: "nova"},
		SignalScore: 120.5,
	}
	track := model.Track{ID: "t1", Title: "Glow", Artist: model.Artist{Name: "Nova"}}

	Convey("Given notes and comments are available", t, func() {
		engine := feed.NewEngine(
			&stubCatalog{tracks: []model.Track{track}},
			&stubSignals{out: []signals.ArtistSignal{artistA}},
			&stubSocial{
				notes: map[string][]model.SignalNote{
					"a1": {{ID: "n1", Text: "early conviction", CreatedAt: ts(9), Author: model.NoteAuthor{Username: "scout"}}},
				},
				comments: map[string][]model.Comment{
					"t1": {{ID: "c1", Text: "this slaps", CreatedAt: ts(11), ProfileID: "p9"}},
				},
			},
		)

		events, err := engine.GlobalEvents(context.Background())

		Convey("Then both event kinds merge newest first", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
			So(events[0].ID, ShouldEqual, "comment-c1")
			So(events[1].ID, ShouldEqual, "back-n1")
		})

		Convey("Then backing events carry artist context and signal score", func() {
			So(events[1].Context, ShouldEqual, "Nova @nova")
			So(events[1].SignalScore, ShouldEqual, 120.5)
			So(events[1].ActorLabel, ShouldEqual, "scout")
		})

		Convey("Then comment events fall back to the profile id as actor", func() {
			So(events[0].ActorLabel, ShouldEqual, "p9")
		})
	})

	Convey("Given note fetches fail per artist", t, func() {
		engine := feed.NewEngine(
			&stubCatalog{tracks: []model.Track{track}},
			&stubSignals{out: []signals.ArtistSignal{artistA}},
			&stubSocial{noteErr: errors.New("flaky"), comments: map[string][]model.Comment{
				"t1": {{ID: "c1", CreatedAt: ts(8)}},
			}},
		)

		events, err := engine.GlobalEvents(context.Background())

		Convey("Then the feed degrades to comment events only", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
			So(events[0].Type, ShouldEqual, feed.EventComment)
		})
	})

	Convey("Given the signal ranking fails", t, func() {
		engine := feed.NewEngine(
			&stubCatalog{tracks: []model.Track{track}},
			&stubSignals{err: errors.New("catalog down")},
			&stubSocial{},
		)

		_, err := engine.GlobalEvents(context.Background())

		Convey("Then the failure propagates", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
