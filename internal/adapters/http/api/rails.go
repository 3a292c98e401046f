package api

import (
	"net/http"

	"github.com/lumina-social/lumina/internal/domain/personalization"
)

// RailsHandler serves personalized discovery rails.
type RailsHandler struct {
	deps Dependencies
}

func NewRailsHandler(deps Dependencies) *RailsHandler {
	return &RailsHandler{deps: deps}
}

type railsResponse struct {
	Wallet string                 `json:"wallet"`
	Rails  []personalization.Rail `json:"rails"`
}

// HandleGetRails returns discovery rails built from a wallet's activity
// history. Wallets with no history get an empty rail list.
func (h *RailsHandler) HandleGetRails(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetRails"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	wallet := pathParam(r.URL.Path, "/rails/")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rails, err := h.deps.Rails(r.Context(), wallet)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", Wrap(op, err))
		return
	}
	if rails == nil {
		rails = []personalization.Rail{}
	}
	writeJSON(w, http.StatusOK, railsResponse{Wallet: wallet, Rails: rails})
}
