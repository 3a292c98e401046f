// Package personalization builds ranked discovery rails from a viewer's
// interaction ledger plus a sample of the trending catalog.
package personalization

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// RailID names the fixed rail kinds, in output order.
type RailID string

// Rail kinds.
const (
	RailBecauseFollowed RailID = "because_followed"
	RailSimilarLikes    RailID = "similar_likes"
	RailRisingGraph     RailID = "rising_graph"
)

// Sampling and scoring constants.
const (
	trendingPageSize   = 100
	likedSampleSize    = 8
	seedTrackSample    = 20
	railSize           = 6
	preferredGenreTop  = 3
	preferredMoodTop   = 2
	seedGenreOverlapW  = 16
	seedMoodOverlapW   = 4
	likesGenreOverlapW = 18
	likesMoodOverlapW  = 10
	risingGenreBoost   = 10
	risingMoodBoost    = 6
)

// Rail is a named, ranked artist list.
type Rail struct {
	ID       RailID         `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Artists  []model.Artist `json:"artists"`
}

// Catalog is the slice of the catalog adapter the engine needs.
type Catalog interface {
	Trending(ctx context.Context, limit, offset int) ([]model.Track, error)
	Track(ctx context.Context, id string) (model.Track, error)
	User(ctx context.Context, id string) (model.Artist, error)
	UserTracks(ctx context.Context, id string, limit, offset int) ([]model.Track, error)
}

// Engine derives discovery rails for a viewer.
type Engine struct {
	catalog Catalog
}

// NewEngine creates a personalization engine backed by the given catalog.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// artistStat accumulates per-artist evidence from the trending pool.
type artistStat struct {
	artist        model.Artist
	genres        map[string]struct{}
	moods         map[string]struct{}
	engagementRaw int
	followerCount int
}

// DiscoveryRails builds up to three ranked rails from the viewer's ledger.
// A viewer with no follow and no like/comment history gets an empty result
// without any network call. Trending fetch failure aborts the computation;
// per-track and per-artist enrichment failures degrade silently.
func (e *Engine) DiscoveryRails(ctx context.Context, activities []model.Activity) ([]Rail, error) {
	followIDs := followedArtistIDs(activities)
	likedIDs := likedTrackIDs(activities)
	if len(followIDs) == 0 && len(likedIDs) == 0 {
		return []Rail{}, nil
	}

	pool, err := e.trendingPool(ctx)
	if err != nil {
		return nil, err
	}
	stats := buildArtistStats(pool)

	interacted := make(map[string]struct{}, len(followIDs))
	for _, id := range followIDs {
		interacted[id] = struct{}{}
	}
	for _, a := range activities {
		if a.Action == model.ActionBackArtist && a.ArtistID != "" {
			interacted[a.ArtistID] = struct{}{}
		}
	}

	likedTracks := e.likedTrackDetails(ctx, sampleUnique(likedIDs, likedSampleSize))
	genreOrder := topTokens(genresOf(likedTracks), preferredGenreTop)
	preferredGenres := tokenSet(genreOrder)
	preferredMoods := tokenSet(topTokens(moodsOf(likedTracks), preferredMoodTop))

	var rails []Rail
	used := make(map[string]struct{})

	if len(followIDs) > 0 {
		rails = appendRail(rails, e.becauseFollowedRail(ctx, followIDs[0], stats, interacted, preferredGenres, preferredMoods, used))
	}
	if len(preferredGenres) > 0 || len(preferredMoods) > 0 {
		rails = appendRail(rails, similarLikesRail(stats, genreOrder, preferredGenres, preferredMoods, used))
	}
	rails = appendRail(rails, risingGraphRail(stats, interacted, preferredGenres, preferredMoods, used))

	return rails, nil
}

// trendingPool fetches two trending pages in parallel. One page failing is
// tolerated; both failing propagates the first error.
func (e *Engine) trendingPool(ctx context.Context) ([]model.Track, error) {
	offsets := []int{0, trendingPageSize}
	pages := make([][]model.Track, len(offsets))
	errs := make([]error, len(offsets))

	var wg sync.WaitGroup
	for i, offset := range offsets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pages[i], errs[i] = e.catalog.Trending(ctx, trendingPageSize, offset)
		}()
	}
	wg.Wait()

	var pool []model.Track
	for _, page := range pages {
		pool = append(pool, page...)
	}
	if len(pool) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("fetch trending pool: %w", err)
			}
		}
	}
	return pool, nil
}

// likedTrackDetails fetches track details best-effort; failures are dropped.
func (e *Engine) likedTrackDetails(ctx context.Context, ids []string) []model.Track {
	results := make([]*model.Track, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if track, err := e.catalog.Track(ctx, id); err == nil {
				results[i] = &track
			}
		}()
	}
	wg.Wait()

	tracks := make([]model.Track, 0, len(ids))
	for _, t := range results {
		if t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks
}

func (e *Engine) becauseFollowedRail(ctx context.Context, seedID string, stats []artistStat, interacted map[string]struct{}, preferredGenres, preferredMoods map[string]struct{}, used map[string]struct{}) Rail {
	seedName := "your follows"
	seedGenres := preferredGenres

	// Refine with the seed artist's own tracks; on any failure fall back to
	// preferences inferred from local interaction history.
	var seedArtist model.Artist
	var seedTracks []model.Track
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		seedArtist, err = e.catalog.User(groupCtx, seedID)
		return err
	})
	group.Go(func() error {
		var err error
		seedTracks, err = e.catalog.UserTracks(groupCtx, seedID, seedTrackSample, 0)
		return err
	})
	if err := group.Wait(); err == nil {
		seedName = seedArtist.Name
		if fromSeed := topTokens(genresOf(seedTracks), preferredGenreTop); len(fromSeed) > 0 {
			seedGenres = tokenSet(fromSeed)
		}
	}

	type candidate struct {
		artist model.Artist
		score  float64
	}
	candidates := make([]candidate, 0, len(stats))
	for _, stat := range stats {
		if _, ok := interacted[stat.artist.ID]; ok {
			continue
		}
		adjustment := 1.5
		if stat.artist.Verified {
			adjustment = 0.5
		}
		score := float64(overlap(stat.genres, seedGenres)*seedGenreOverlapW) +
			float64(overlap(stat.moods, preferredMoods)*seedMoodOverlapW) +
			float64(stat.engagementRaw)/math.Max(1, float64(stat.followerCount)) +
			adjustment
		candidates = append(candidates, candidate{artist: stat.artist, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	artists := takeUnused(candidates, used, func(c candidate) model.Artist { return c.artist })
	return Rail{
		ID:       RailBecauseFollowed,
		Title:    "Because You Followed " + seedName,
		Subtitle: "Adjacent artists with overlapping listener behavior and attention patterns.",
		Artists:  artists,
	}
}

func similarLikesRail(stats []artistStat, genreOrder []string, preferredGenres, preferredMoods map[string]struct{}, used map[string]struct{}) Rail {
	type candidate struct {
		artist model.Artist
		score  float64
	}
	candidates := make([]candidate, 0, len(stats))
	for _, stat := range stats {
		score := float64(overlap(stat.genres, preferredGenres)*likesGenreOverlapW) +
			float64(overlap(stat.moods, preferredMoods)*likesMoodOverlapW) +
			float64(stat.engagementRaw)/math.Max(1, float64(stat.followerCount))
		if score <= 0 {
			continue
		}
		candidates = append(candidates, candidate{artist: stat.artist, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	subtitle := "Calibrated from your recent likes and comments."
	if label := genreLabel(genreOrder); label != "" {
		subtitle = "Calibrated from your recent listening actions around " + label + "."
	}
	return Rail{
		ID:       RailSimilarLikes,
		Title:    "Similar To Your Likes",
		Subtitle: subtitle,
		Artists:  takeUnused(candidates, used, func(c candidate) model.Artist { return c.artist }),
	}
}

func risingGraphRail(stats []artistStat, interacted map[string]struct{}, preferredGenres, preferredMoods map[string]struct{}, used map[string]struct{}) Rail {
	type candidate struct {
		artist model.Artist
		score  float64
	}
	candidates := make([]candidate, 0, len(stats))
	for _, stat := range stats {
		if _, ok := interacted[stat.artist.ID]; ok {
			continue
		}
		candidates = append(candidates, candidate{artist: stat.artist, score: scoreRising(stat, preferredGenres, preferredMoods)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	return Rail{
		ID:       RailRisingGraph,
		Title:    "Rising In Your Graph",
		Subtitle: "Undervalued artists with strong engagement-per-follower momentum.",
		Artists:  takeUnused(candidates, used, func(c candidate) model.Artist { return c.artist }),
	}
}

// scoreRising favors attention-per-follower with genre/mood affinity bonuses
// and a bonus for smaller audiences.
func scoreRising(stat artistStat, preferredGenres, preferredMoods map[string]struct{}) float64 {
	apf := float64(stat.engagementRaw) / math.Max(1, float64(stat.followerCount)) * 1000
	genreBoost := float64(overlap(stat.genres, preferredGenres) * risingGenreBoost)
	moodBoost := float64(overlap(stat.moods, preferredMoods) * risingMoodBoost)
	followerBoost := 20.0
	if stat.followerCount > 0 {
		followerBoost = math.Max(0, 20-math.Log10(float64(stat.followerCount)+10)*4)
	}
	return apf + genreBoost + moodBoost + followerBoost
}

// buildArtistStats aggregates the trending pool per artist, keeping genre
// and mood sets and the maximum follower count seen. The snapshot with the
// highest follower count represents the artist.
func buildArtistStats(tracks []model.Track) []artistStat {
	index := make(map[string]int, len(tracks))
	stats := make([]artistStat, 0, len(tracks))

	for _, track := range tracks {
		genre := normalizeToken(track.Genre)
		mood := normalizeToken(track.Mood)
		engagement := track.PlayCount + track.FavoriteCount*4 + track.RepostCount*3

		i, ok := index[track.Artist.ID]
		if !ok {
			stat := artistStat{
				artist:        track.Artist,
				genres:        make(map[string]struct{}),
				moods:         make(map[string]struct{}),
				engagementRaw: engagement,
				followerCount: track.Artist.FollowerCount,
			}
			if genre != "" {
				stat.genres[genre] = struct{}{}
			}
			if mood != "" {
				stat.moods[mood] = struct{}{}
			}
			index[track.Artist.ID] = len(stats)
			stats = append(stats, stat)
			continue
		}

		stat := &stats[i]
		if genre != "" {
			stat.genres[genre] = struct{}{}
		}
		if mood != "" {
			stat.moods[mood] = struct{}{}
		}
		stat.engagementRaw += engagement
		stat.followerCount = max(stat.followerCount, track.Artist.FollowerCount)
		if track.Artist.FollowerCount > stat.artist.FollowerCount {
			stat.artist = track.Artist
		}
	}
	return stats
}

func appendRail(rails []Rail, rail Rail) []Rail {
	if len(rail.Artists) == 0 {
		return rails
	}
	return append(rails, rail)
}

func takeUnused[T any](candidates []T, used map[string]struct{}, artistOf func(T) model.Artist) []model.Artist {
	out := make([]model.Artist, 0, railSize)
	for _, c := range candidates {
		artist := artistOf(c)
		if _, ok := used[artist.ID]; ok {
			continue
		}
		used[artist.ID] = struct{}{}
		out = append(out, artist)
		if len(out) == railSize {
			break
		}
	}
	return out
}

func followedArtistIDs(activities []model.Activity) []string {
	var ids []string
	for _, a := range activities {
		if a.Action == model.ActionFollowArtist && a.ArtistID != "" {
			ids = append(ids, a.ArtistID)
		}
	}
	return ids
}

func likedTrackIDs(activities []model.Activity) []string {
	var ids []string
	for _, a := range activities {
		if (a.Action == model.ActionLikeTrack || a.Action == model.ActionComment) && a.TrackID != "" {
			ids = append(ids, a.TrackID)
		}
	}
	return ids
}

func sampleUnique(ids []string, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func genresOf(tracks []model.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, normalizeToken(t.Genre))
	}
	return out
}

func moodsOf(tracks []model.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, normalizeToken(t.Mood))
	}
	return out
}

// topTokens returns the limit most frequent non-empty tokens, most frequent
// first; ties keep first-seen order.
func topTokens(tokens []string, limit int) []string {
	count := make(map[string]int)
	var order []string
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, ok := count[token]; !ok {
			order = append(order, token)
		}
		count[token]++
	}
	sort.SliceStable(order, func(i, j int) bool { return count[order[i]] > count[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func overlap(set, targets map[string]struct{}) int {
	n := 0
	for v := range set {
		if _, ok := targets[v]; ok {
			n++
		}
	}
	return n
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// genreLabel joins the two most frequent preferred genres in title case for
// rail copy. genreOrder is already sorted by like frequency.
func genreLabel(genreOrder []string) string {
	tokens := genreOrder
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = titleCase(t)
	}
	return strings.Join(out, " · ")
}

func titleCase(token string) string {
	parts := strings.Fields(token)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
