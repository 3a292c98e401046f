package api

import (
	"net/http"
	"strconv"
)

const defaultLeaderboardLimit = 10

// LeaderboardHandler serves ranked wallet standings.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultLeaderboardLimit
	}
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

type leaderboardResponse struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
}

// HandleGetLeaderboard returns the top wallets by points. The limit query
// parameter defaults to 10 and is capped at the configured maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetLeaderboard"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	entries, err := h.deps.TopN(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries, Count: len(entries)})
}
