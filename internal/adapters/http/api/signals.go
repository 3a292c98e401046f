package api

import (
	"net/http"
	"strconv"

	"github.com/lumina-social/lumina/internal/domain/signals"
)

const defaultSignalsLimit = 24

// SignalsHandler serves the undervalued-artist scan.
type SignalsHandler struct {
	deps Dependencies
}

func NewSignalsHandler(deps Dependencies) *SignalsHandler {
	return &SignalsHandler{deps: deps}
}

type signalsResponse struct {
	Signals []signals.ArtistSignal `json:"signals"`
	Count   int                    `json:"count"`
}

// HandleGetSignals returns artists ranked by signal score, best first.
func (h *SignalsHandler) HandleGetSignals(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetSignals"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	limit := defaultSignalsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	out, err := h.deps.Signals(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", Wrap(op, err))
		return
	}
	if out == nil {
		out = []signals.ArtistSignal{}
	}
	writeJSON(w, http.StatusOK, signalsResponse{Signals: out, Count: len(out)})
}
