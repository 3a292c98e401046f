// Package catalog is a REST client for the streaming-catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.audius.co/v1"
	defaultTimeout = 15 * time.Second

	minPageSize = 1
	maxPageSize = 100

	trendingArtistsScan = 50

	serviceLabel = "catalog"
)

// Client talks to the catalog API. Responses arrive wrapped in a
// {"data": ...} envelope with snake_case fields; missing counters
// default to zero.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a catalog client with default configuration.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trending returns one page of trending tracks.
func (c *Client) Trending(ctx context.Context, limit, offset int) ([]model.Track, error) {
	limit, offset = clampPage(limit, offset)

	var env struct {
		Data []trackPayload `json:"data"`
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if err := c.getJSON(ctx, "trending", "/tracks/trending", q, &env); err != nil {
		return nil, err
	}
	return mapTracks(env.Data), nil
}

// Track returns a single track by id.
func (c *Client) Track(ctx context.Context, id string) (model.Track, error) {
	var env struct {
		Data trackPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "track", "/tracks/"+url.PathEscape(id), nil, &env); err != nil {
		return model.Track{}, err
	}
	return env.Data.toModel(), nil
}

// User returns a single artist/user by id.
func (c *Client) User(ctx context.Context, id string) (model.Artist, error) {
	var env struct {
		Data userPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "user", "/users/"+url.PathEscape(id), nil, &env); err != nil {
		return model.Artist{}, err
	}
	return env.Data.toModel(), nil
}

// UserByHandle returns a single artist/user by handle.
func (c *Client) UserByHandle(ctx context.Context, handle string) (model.Artist, error) {
	var env struct {
		Data userPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "user_by_handle", "/users/handle/"+url.PathEscape(handle), nil, &env); err != nil {
		return model.Artist{}, err
	}
	return env.Data.toModel(), nil
}

// UserTracks returns one page of an artist's uploaded tracks.
func (c *Client) UserTracks(ctx context.Context, id string, limit, offset int) ([]model.Track, error) {
	limit, offset = clampPage(limit, offset)

	var env struct {
		Data []trackPayload `json:"data"`
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if err := c.getJSON(ctx, "user_tracks", "/users/"+url.PathEscape(id)+"/tracks", q, &env); err != nil {
		return nil, err
	}
	return mapTracks(env.Data), nil
}

// TrendingArtists returns unique artists behind the current trending
// tracks, in trending order.
func (c *Client) TrendingArtists(ctx context.Context, limit int) ([]model.Artist, error) {
	if limit < minPageSize {
		limit = minPageSize
	}
	tracks, err := c.Trending(ctx, trendingArtistsScan, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, limit)
	artists := make([]model.Artist, 0, limit)
	for _, t := range tracks {
		if _, ok := seen[t.Artist.ID]; ok {
			continue
		}
		seen[t.Artist.ID] = struct{}{}
		artists = append(artists, t.Artist)
		if len(artists) >= limit {
			break
		}
	}
	return artists, nil
}

// SearchTracks searches the catalog for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]model.Track, error) {
	limit, _ = clampPage(limit, 0)

	var env struct {
		Data []trackPayload `json:"data"`
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	if err := c.getJSON(ctx, "search_tracks", "/tracks/search", q, &env); err != nil {
		return nil, err
	}
	return mapTracks(env.Data), nil
}

// SearchUsers searches the catalog for artists matching query.
func (c *Client) SearchUsers(ctx context.Context, query string, limit, offset int) ([]model.Artist, error) {
	limit, offset = clampPage(limit, offset)

	var env struct {
		Data []userPayload `json:"data"`
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if err := c.getJSON(ctx, "search_users", "/users/search", q, &env); err != nil {
		return nil, err
	}

	artists := make([]model.Artist, len(env.Data))
	for i, u := range env.Data {
		artists[i] = u.toModel()
	}
	return artists, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	metrics.RecordUpstreamRequest(serviceLabel, op)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("catalog %s: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	metrics.RecordUpstreamLatency(serviceLabel, op, float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("catalog %s: %w: status %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("catalog %s: decode: %w", op, err)
	}
	return nil
}

// clampPage bounds a page request to what the upstream accepts.
func clampPage(limit, offset int) (int, int) {
	limit = min(max(limit, minPageSize), maxPageSize)
	offset = max(offset, 0)
	return limit, offset
}

type userPayload struct {
	ID             string            `json:"id"`
	Handle         string            `json:"handle"`
	Name           string            `json:"name"`
	ProfilePicture map[string]string `json:"profile_picture"`
	FollowerCount  int               `json:"follower_count"`
	FolloweeCount  int               `json:"followee_count"`
	TrackCount     int               `json:"track_count"`
	IsVerified     bool              `json:"is_verified"`
}

func (p userPayload) toModel() model.Artist {
	return model.Artist{
		ID:             p.ID,
		Handle:         p.Handle,
		Name:           p.Name,
		Verified:       p.IsVerified,
		FollowerCount:  p.FollowerCount,
		FolloweeCount:  p.FolloweeCount,
		TrackCount:     p.TrackCount,
		ProfilePicture: p.ProfilePicture,
	}
}

type trackPayload struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Duration      int         `json:"duration"`
	Genre         string      `json:"genre"`
	Mood          string      `json:"mood"`
	PlayCount     int         `json:"play_count"`
	FavoriteCount int         `json:"favorite_count"`
	RepostCount   int         `json:"repost_count"`
	User          userPayload `json:"user"`
	CreatedAt     string      `json:"created_at"`
}

func (p trackPayload) toModel() model.Track {
	// Upstream timestamps are RFC 3339; a malformed one maps to the
	// zero time rather than failing the whole page.
	createdAt, _ := time.Parse(time.RFC3339, p.CreatedAt)
	return model.Track{
		ID:            p.ID,
		Title:         p.Title,
		Duration:      p.Duration,
		Genre:         p.Genre,
		Mood:          p.Mood,
		PlayCount:     p.PlayCount,
		FavoriteCount: p.FavoriteCount,
		RepostCount:   p.RepostCount,
		Artist:        p.User.toModel(),
		CreatedAt:     createdAt,
	}
}

func mapTracks(payloads []trackPayload) []model.Track {
	tracks := make([]model.Track, len(payloads))
	for i, p := range payloads {
		tracks[i] = p.toModel()
	}
	return tracks
}
