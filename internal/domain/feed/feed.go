// Package feed assembles the global activity feed from backing notes on
// high-signal artists and comments on trending tracks.
package feed

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/signals"
)

// Fan-out sizes for feed assembly.
const (
	backingArtistLimit = 10
	notesPerArtist     = 2
	commentTrackLimit  = 8
	commentsPerTrack   = 2
)

// EventType tags a feed event.
type EventType string

// Feed event types.
const (
	EventBack    EventType = "back"
	EventComment EventType = "comment"
)

// Event is one entry of the global feed, newest first.
type Event struct {
	ID                   string    `json:"id"`
	Type                 EventType `json:"type"`
	CreatedAt            string    `json:"created_at"`
	ActorLabel           string    `json:"actor_label"`
	Text                 string    `json:"text,omitempty"`
	Href                 string    `json:"href,omitempty"`
	Context              string    `json:"context,omitempty"`
	SignalScore          float64   `json:"signal_score,omitempty"`
	AttentionPerFollower float64   `json:"attention_per_follower,omitempty"`
}

// Catalog is the slice of the catalog adapter the feed needs.
type Catalog interface {
	Trending(ctx context.Context, limit, offset int) ([]model.Track, error)
}

// SignalSource ranks undervalued artists.
type SignalSource interface {
	Undervalued(ctx context.Context, limit int) ([]signals.ArtistSignal, error)
}

// SocialGraph reads backing notes and comments from the social-graph service.
type SocialGraph interface {
	ArtistSignals(ctx context.Context, artistID string, limit, offset int) ([]model.SignalNote, error)
	Comments(ctx context.Context, trackID string, limit, offset int) ([]model.Comment, error)
}

// Engine assembles the global feed.
type Engine struct {
	catalog Catalog
	signals SignalSource
	social  SocialGraph
}

// NewEngine creates a feed engine from its collaborators.
func NewEngine(catalog Catalog, signalSource SignalSource, social SocialGraph) *Engine {
	return &Engine{catalog: catalog, signals: signalSource, social: social}
}

// GlobalEvents returns the merged feed sorted by creation time, newest
// first. Primary catalog/signal fetches propagate failure; per-artist and
// per-track note fetches are best-effort.
func (e *Engine) GlobalEvents(ctx context.Context) ([]Event, error) {
	var backs, comments []Event

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		backs, err = e.backingEvents(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		comments, err = e.trackCommentEvents(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	events := append(backs, comments...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt > events[j].CreatedAt
	})
	return events, nil
}

func (e *Engine) backingEvents(ctx context.Context) ([]Event, error) {
	artists, err := e.signals.Undervalued(ctx, backingArtistLimit)
	if err != nil {
		return nil, err
	}

	notes := make([][]model.SignalNote, len(artists))
	var wg sync.WaitGroup
	for i, artist := range artists {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Best-effort: an artist without reachable notes contributes nothing.
			if fetched, noteErr := e.social.ArtistSignals(ctx, artist.Artist.ID, notesPerArtist, 0); noteErr == nil {
				notes[i] = fetched
			}
		}()
	}
	wg.Wait()

	var events []Event
	for i, artist := range artists {
		for _, note := range notes[i] {
			events = append(events, Event{
				ID:                   "back-" + note.ID,
				Type:                 EventBack,
				CreatedAt:            note.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
				ActorLabel:           actorLabel(note.Author, note.ProfileID),
				Text:                 note.Text,
				Href:                 "/artist/" + artist.Artist.ID,
				Context:              artist.Artist.Name + " @" + artist.Artist.Handle,
				SignalScore:          artist.SignalScore,
				AttentionPerFollower: artist.AttentionPerFollower,
			})
		}
	}
	return events, nil
}

func (e *Engine) trackCommentEvents(ctx context.Context) ([]Event, error) {
	tracks, err := e.catalog.Trending(ctx, commentTrackLimit, 0)
	if err != nil {
		return nil, err
	}

	comments := make([][]model.Comment, len(tracks))
	var wg sync.WaitGroup
	for i, track := range tracks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fetched, commentErr := e.social.Comments(ctx, track.ID, commentsPerTrack, 0); commentErr == nil {
				comments[i] = fetched
			}
		}()
	}
	wg.Wait()

	var events []Event
	for i, track := range tracks {
		for _, comment := range comments[i] {
			events = append(events, Event{
				ID:         "comment-" + comment.ID,
				Type:       EventComment,
				CreatedAt:  comment.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
				ActorLabel: actorLabel(comment.Author, comment.ProfileID),
				Text:       comment.Text,
				Href:       "/track/" + track.ID,
				Context:    track.Title + " by " + track.Artist.Name,
			})
		}
	}
	return events, nil
}

func actorLabel(author model.NoteAuthor, fallback string) string {
	if author.Username != "" {
		return author.Username
	}
	return fallback
}
