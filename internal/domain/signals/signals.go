// Package signals computes "undervalued artist" rankings from trending
// catalog tracks. The score favors strong engagement relative to the
// artist's current follower base.
package signals

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// Scoring constants. These are tuned values; treat them as fixed
// configuration and do not expose them as options.
const (
	trendingBatchSize = 100
	defaultLimit      = 24

	favoriteWeight = 4
	repostWeight   = 3

	consistencyBase    = 0.7
	consistencyPerHit  = 1.0 / 8.0
	consistencyCeiling = 1.5

	supplyPenaltyBase    = 1.15
	supplyPenaltyPerWork = 1.0 / 400.0
	supplyPenaltyMaxCut  = 0.3
	supplyPenaltyFloor   = 0.85

	verifiedAdjustment = 0.95
)

// ArtistSignal is the derived, per-artist ranking record.
type ArtistSignal struct {
	Artist               model.Artist `json:"artist"`
	Plays                int          `json:"plays"`
	Favorites            int          `json:"favorites"`
	Reposts              int          `json:"reposts"`
	AppearanceCount      int          `json:"appearance_count"`
	SignalScore          float64      `json:"signal_score"`
	AttentionPerFollower float64      `json:"attention_per_follower"`
}

// Catalog is the slice of the catalog adapter the engine needs.
type Catalog interface {
	Trending(ctx context.Context, limit, offset int) ([]model.Track, error)
}

// Engine fetches trending tracks and ranks their artists.
type Engine struct {
	catalog Catalog
}

// NewEngine creates a signal engine backed by the given catalog.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Undervalued returns the top-limit undervalued artist signals computed from
// one trending batch. Catalog failures propagate; there is no retry and no
// partial result.
func (e *Engine) Undervalued(ctx context.Context, limit int) ([]ArtistSignal, error) {
	tracks, err := e.catalog.Trending(ctx, trendingBatchSize, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch trending batch: %w", err)
	}
	return Build(tracks, limit), nil
}

// Build computes artist signals from a batch of trending tracks. Pure.
// Artists appearing on multiple tracks are coalesced into one accumulator;
// ties on score keep first-seen order.
func Build(tracks []model.Track, limit int) []ArtistSignal {
	if limit <= 0 {
		limit = defaultLimit
	}

	index := make(map[string]int, len(tracks))
	signals := make([]ArtistSignal, 0, len(tracks))

	for _, track := range tracks {
		i, ok := index[track.Artist.ID]
		if !ok {
			index[track.Artist.ID] = len(signals)
			signals = append(signals, ArtistSignal{
				Artist:          track.Artist,
				Plays:           track.PlayCount,
				Favorites:       track.FavoriteCount,
				Reposts:         track.RepostCount,
				AppearanceCount: 1,
			})
			continue
		}

		s := &signals[i]
		s.Plays += track.PlayCount
		s.Favorites += track.FavoriteCount
		s.Reposts += track.RepostCount
		s.AppearanceCount++
		s.Artist.FollowerCount = max(s.Artist.FollowerCount, track.Artist.FollowerCount)
		s.Artist.TrackCount = max(s.Artist.TrackCount, track.Artist.TrackCount)
	}

	for i := range signals {
		s := &signals[i]

		attentionRaw := float64(s.Plays + s.Favorites*favoriteWeight + s.Reposts*repostWeight)
		attention := math.Log10(attentionRaw + 10)
		audience := math.Log10(float64(s.Artist.FollowerCount) + 10)
		attentionGap := attention / math.Max(1, audience)

		consistency := math.Min(consistencyCeiling, consistencyBase+float64(s.AppearanceCount)*consistencyPerHit)
		supplyPenalty := math.Max(supplyPenaltyFloor,
			supplyPenaltyBase-math.Min(supplyPenaltyMaxCut, float64(s.Artist.TrackCount)*supplyPenaltyPerWork))
		adjustment := 1.0
		if s.Artist.Verified {
			adjustment = verifiedAdjustment
		}

		s.SignalScore = round2(attentionGap * consistency * supplyPenalty * adjustment * 100)
		s.AttentionPerFollower = round2(attentionRaw / math.Max(1, float64(s.Artist.FollowerCount)) * 1000)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].SignalScore > signals[j].SignalScore
	})

	if len(signals) > limit {
		signals = signals[:limit]
	}
	return signals
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
