package api

import (
	"net/http"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/reputation"
)

// SupportersHandler serves reputation profiles for supporter wallets.
type SupportersHandler struct {
	deps Dependencies
}

func NewSupportersHandler(deps Dependencies) *SupportersHandler {
	return &SupportersHandler{deps: deps}
}

type supporterResponse struct {
	Wallet     string                      `json:"wallet"`
	Points     int                         `json:"points"`
	Activities int                         `json:"activities"`
	Profile    reputation.SupporterProfile `json:"profile"`
	Recent     []model.Activity            `json:"recent"`
}

const supporterRecentLimit = 20

// HandleGetSupporter returns the reputation profile for a wallet. Wallets
// with no ledger history get a zero profile rather than a 404.
func (h *SupportersHandler) HandleGetSupporter(w http.ResponseWriter, r *http.Request) {
	const op = "HandleGetSupporter"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	wallet := pathParam(r.URL.Path, "/supporters/")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	record, profile, err := h.deps.SupporterProfile(r.Context(), wallet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
		return
	}

	recent := record.Activities
	if len(recent) > supporterRecentLimit {
		recent = recent[:supporterRecentLimit]
	}
	if recent == nil {
		recent = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, supporterResponse{
		Wallet:     wallet,
		Points:     record.Points,
		Activities: len(record.Activities),
		Profile:    profile,
		Recent:     recent,
	})
}
