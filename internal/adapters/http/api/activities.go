package api

import (
	"encoding/json"
	"net/http"

	"github.com/lumina-social/lumina/pkg/logger"
	"github.com/lumina-social/lumina/pkg/metrics"
)

// ActivitiesHandler ingests supporter activities.
type ActivitiesHandler struct {
	deps Dependencies
	log  logger.Logger
}

func NewActivitiesHandler(deps Dependencies) *ActivitiesHandler {
	return &ActivitiesHandler{deps: deps, log: logger.Get().Named("activities-handler")}
}

// HandlePostActivity validates an activity submission, applies idempotency
// by activity id, and enqueues it for asynchronous valuation.
//
// Responses:
//
//	202 accepted   - queued for processing
//	200 duplicate  - activity id was seen before, no-op
//	400            - malformed payload or unknown action
//	429            - queue is full, retry later
func (h *ActivitiesHandler) HandlePostActivity(w http.ResponseWriter, r *http.Request) {
	const op = "HandlePostActivity"

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordActivityRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordActivityRejected()
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sub := req.toSubmission()
	if !h.deps.KnownAction(sub.Activity.Action) {
		metrics.RecordActivityRejected()
		writeError(w, http.StatusBadRequest, "unknown_action", NewKind(op, ErrUnknownAction))
		return
	}

	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, sub.Activity.ID) {
		metrics.RecordActivityDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if !h.deps.Enqueue(ctx, sub) {
		// The id was recorded optimistically; roll back so a retry after
		// backpressure is not treated as a duplicate.
		h.deps.Unrecord(ctx, sub.Activity.ID)
		h.log.Warn(ctx, "activity rejected on backpressure",
			logger.String("activity_id", sub.Activity.ID),
			logger.String("wallet", sub.Wallet))
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
