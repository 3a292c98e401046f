package api

import (
	"net/http"

	"github.com/lumina-social/lumina/internal/domain/feed"
)

// FeedHandler serves the global activity feed.
type FeedHandler struct {
	deps Dependencies
}

func NewFeedHandler(deps Dependencies) *FeedHandler {
	return &FeedHandler{deps: deps}
}

type feedResponse struct {
	Events []feed.Event `json:"events"`
	Count  int          `json:"count"`
}

// HandleGetFeed returns the merged global event stream, newest first.
func (h *FeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetFeed"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	events, err := h.deps.Feed(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", Wrap(op, err))
		return
	}
	if events == nil {
		events = []feed.Event{}
	}
	writeJSON(w, http.StatusOK, feedResponse{Events: events, Count: len(events)})
}
