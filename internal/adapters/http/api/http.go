// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lumina-social/lumina/internal/adapters/ledger"
	"github.com/lumina-social/lumina/internal/adapters/mq/queue"
	"github.com/lumina-social/lumina/internal/domain/dedupe"
	"github.com/lumina-social/lumina/internal/domain/feed"
	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/personalization"
	"github.com/lumina-social/lumina/internal/domain/reputation"
	"github.com/lumina-social/lumina/internal/domain/signals"
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = ledger.Entry

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, s queue.Submission) bool

	// KnownAction reports whether an action kind earns points.
	KnownAction(action model.Action) bool

	// Ledger reads.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, wallet string) (Entry, error)
	SupporterProfile(ctx context.Context, wallet string) (model.LedgerRecord, reputation.SupporterProfile, error)

	// Catalog-backed read models.
	Signals(ctx context.Context, limit int) ([]signals.ArtistSignal, error)
	Community(ctx context.Context, artistID, viewerWallet string) (reputation.CommunitySnapshot, error)
	Rails(ctx context.Context, wallet string) ([]personalization.Rail, error)
	Feed(ctx context.Context) ([]feed.Event, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	activitiesHandler  *ActivitiesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	supportersHandler  *SupportersHandler
	signalsHandler     *SignalsHandler
	communityHandler   *CommunityHandler
	railsHandler       *RailsHandler
	feedHandler        *FeedHandler
}

// NewServer creates an API server with all handlers. maxLeaderboardLimit
// caps GET /leaderboard page sizes.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		activitiesHandler:  NewActivitiesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		supportersHandler:  NewSupportersHandler(deps),
		signalsHandler:     NewSignalsHandler(deps),
		communityHandler:   NewCommunityHandler(deps),
		railsHandler:       NewRailsHandler(deps),
		feedHandler:        NewFeedHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/activities", MetricsMiddleware(s.activitiesHandler.HandlePostActivity, "activities"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/supporters/", MetricsMiddleware(s.supportersHandler.HandleGetSupporter, "supporters"))
	mux.HandleFunc("/signals", MetricsMiddleware(s.signalsHandler.HandleGetSignals, "signals"))
	mux.HandleFunc("/artists/", MetricsMiddleware(s.communityHandler.HandleGetCommunity, "community"))
	mux.HandleFunc("/rails/", MetricsMiddleware(s.railsHandler.HandleGetRails, "rails"))
	mux.HandleFunc("/feed", MetricsMiddleware(s.feedHandler.HandleGetFeed, "feed"))
	mux.Handle("/metrics", MetricsHandler())
}

// activityRequest mirrors the OpenAPI schema for POST /activities.
type activityRequest struct {
	ActivityID          string `json:"activity_id"`
	Wallet              string `json:"wallet"`
	Action              string `json:"action"`
	TS                  string `json:"ts"`
	TrackID             string `json:"track_id,omitempty"`
	ArtistID            string `json:"artist_id,omitempty"`
	ArtistFollowerCount *int   `json:"artist_follower_count,omitempty"`
	NoteLength          *int   `json:"note_length,omitempty"`
}

func (a activityRequest) validate() error {
	switch {
	case strings.TrimSpace(a.ActivityID) == "":
		return errors.New("missing activity_id")
	case strings.TrimSpace(a.Wallet) == "":
		return errors.New("missing wallet")
	case strings.TrimSpace(a.Action) == "":
		return errors.New("missing action")
	case strings.TrimSpace(a.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, a.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

func (a activityRequest) toSubmission() queue.Submission {
	ts, _ := time.Parse(time.RFC3339, a.TS)
	return queue.Submission{
		Wallet: a.Wallet,
		Activity: model.Activity{
			ID:                  a.ActivityID,
			Action:              model.Action(a.Action),
			Timestamp:           ts,
			TrackID:             a.TrackID,
			ArtistID:            a.ArtistID,
			ArtistFollowerCount: a.ArtistFollowerCount,
			NoteLength:          a.NoteLength,
		},
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates ledger not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound)
}

// pathParam extracts the single path segment after prefix, or "" if the
// remainder is empty or nested.
func pathParam(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
