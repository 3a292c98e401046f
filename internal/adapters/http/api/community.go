package api

import (
	"net/http"
	"strings"
)

// CommunityHandler serves an artist's community snapshot.
type CommunityHandler struct {
	deps Dependencies
}

func NewCommunityHandler(deps Dependencies) *CommunityHandler {
	return &CommunityHandler{deps: deps}
}

// HandleGetCommunity returns recent followers, backers, and fans shared
// with the viewer for the artist in the path. Route shape is
// /artists/{id}/community with an optional viewer query parameter.
func (h *CommunityHandler) HandleGetCommunity(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetCommunity"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/artists/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "community" {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrBadRequest))
		return
	}
	artistID := parts[0]
	viewer := r.URL.Query().Get("viewer")

	snapshot, err := h.deps.Community(r.Context(), artistID, viewer)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
