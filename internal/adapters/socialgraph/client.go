// Package socialgraph is a REST client for the social-graph API holding
// profiles, likes, comments, and artist backing notes.
package socialgraph

import (
	"bytes"
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
	defaultBaseURL = "https://api.usetapestry.dev/api/v1"
	defaultTimeout = 15 * time.Second

	// Catalog entities live in the graph under prefixed node ids.
	trackNodePrefix        = "audius-track-"
	artistSignalNodePrefix = "audius-artist-signal-"

	serviceLabel = "socialgraph"
)

// Client talks to the social-graph API. The API key is injected as an
// apiKey query parameter on every request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a social-graph client with default configuration.
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

// ProfileByID returns a single profile.
func (c *Client) ProfileByID(ctx context.Context, id string) (model.Profile, error) {
	var payload struct {
		Profile       profilePayload `json:"profile"`
		WalletAddress string         `json:"walletAddress"`
	}
	err := c.do(ctx, "profile", http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &payload)
	if err != nil {
		return model.Profile{}, err
	}

	profile := payload.Profile.toModel()
	if payload.WalletAddress != "" {
		profile.WalletAddress = payload.WalletAddress
	}
	return profile, nil
}

// ProfilesByWallet searches profiles bound to a wallet address. A wallet
// with no profiles yields an empty slice, not an error.
func (c *Client) ProfilesByWallet(ctx context.Context, wallet string, limit, offset int) ([]model.Profile, error) {
	body := map[string]any{
		"walletAddress": wallet,
		"limit":         limit,
		"offset":        offset,
	}

	var payload struct {
		Profiles []profilePayload `json:"profiles"`
	}
	err := c.do(ctx, "profiles_by_wallet", http.MethodPost, "/profiles/search", nil, body, &payload)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.Profile, len(payload.Profiles))
	for i, p := range payload.Profiles {
		profiles[i] = p.toModel()
	}
	return profiles, nil
}

// Likes returns the profiles that liked a track's content node and the
// total like count.
func (c *Client) Likes(ctx context.Context, trackID string) ([]model.Profile, int, error) {
	var payload struct {
		Profiles []profilePayload `json:"profiles"`
		Total    int              `json:"total"`
	}
	node := trackNodePrefix + trackID
	err := c.do(ctx, "likes", http.MethodGet, "/likes/"+url.PathEscape(node), nil, nil, &payload)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]model.Profile, len(payload.Profiles))
	for i, p := range payload.Profiles {
		profiles[i] = p.toModel()
	}
	return profiles, payload.Total, nil
}

// Comments returns one page of comments on a track's content node,
// newest first as the upstream returns them.
func (c *Client) Comments(ctx context.Context, trackID string, limit, offset int) ([]model.Comment, error) {
	return c.commentsFor(ctx, "comments", trackNodePrefix+trackID, limit, offset)
}

// ArtistSignals returns one page of backing notes attached to an
// artist's signal node.
func (c *Client) ArtistSignals(ctx context.Context, artistID string, limit, offset int) ([]model.SignalNote, error) {
	comments, err := c.commentsFor(ctx, "artist_signals", artistSignalNodePrefix+artistID, limit, offset)
	if err != nil {
		return nil, err
	}

	notes := make([]model.SignalNote, len(comments))
	for i, cm := range comments {
		notes[i] = model.SignalNote{
			ID:        cm.ID,
			ProfileID: cm.ProfileID,
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt,
			Author:    cm.Author,
		}
	}
	return notes, nil
}

func (c *Client) commentsFor(ctx context.Context, op, nodeID string, limit, offset int) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("contentId", nodeID)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var payload struct {
		Comments []commentPayload `json:"comments"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/comments", q, nil, &payload); err != nil {
		return nil, err
	}

	comments := make([]model.Comment, len(payload.Comments))
	for i, p := range payload.Comments {
		comments[i] = model.Comment{
			ID:        p.Comment.ID,
			ProfileID: p.Author.ID,
			ContentID: nodeID,
			Text:      p.Comment.Text,
			CreatedAt: time.UnixMilli(p.Comment.CreatedAt).UTC(),
			Author: model.NoteAuthor{
				ID:       p.Author.ID,
				Username: p.Author.Username,
				Image:    p.Author.Image,
			},
		}
	}
	return comments, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("socialgraph %s: marshal: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("socialgraph %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	metrics.RecordUpstreamRequest(serviceLabel, op)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("socialgraph %s: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	metrics.RecordUpstreamLatency(serviceLabel, op, float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("socialgraph %s: %w: status %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordUpstreamError(serviceLabel, op)
		return fmt.Errorf("socialgraph %s: decode: %w", op, err)
	}
	return nil
}

type profilePayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Wallet   string `json:"walletAddress"`
}

func (p profilePayload) toModel() model.Profile {
	return model.Profile{
		ID:            p.ID,
		Username:      p.Username,
		Bio:           p.Bio,
		Image:         p.Image,
		WalletAddress: p.Wallet,
	}
}

// The comments endpoint nests the comment body next to its author and
// reports creation time as epoch milliseconds.
type commentPayload struct {
	Comment struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		CreatedAt int64  `json:"created_at"`
	} `json:"comment"`
	Author struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Image    string `json:"image"`
	} `json:"author"`
}
