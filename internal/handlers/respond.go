package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/middleware"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusOf maps workflow sentinels to HTTP status and a stable code.
var statusOf = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{services.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
	{services.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{services.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{services.ErrJobNoLongerOpen, http.StatusConflict, "job_no_longer_open"},
	{services.ErrOfferPending, http.StatusConflict, "offer_pending"},
	{services.ErrDuplicateFeedback, http.StatusConflict, "duplicate_feedback"},
	{services.ErrFeedbackLocked, http.StatusConflict, "feedback_locked"},
	{services.ErrPaymentAlreadyInProgress, http.StatusConflict, "payment_already_in_progress"},
	{services.ErrInvalidPaymentState, http.StatusConflict, "invalid_payment_state"},
	{services.ErrStaleState, http.StatusConflict, "stale_state"},
	{services.ErrScoringUnavailable, http.StatusServiceUnavailable, "scoring_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeServiceError writes the mapped status for err, or 500 after logging it.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

// actorOr401 returns the authenticated actor or writes 401.
func actorOr401(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "unauthorized")
	}
	return actor, ok
}

// pathID parses the {id} path value or writes 400.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into v or writes 400. An empty body is allowed
// when optional is true.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return false
	}
	return true
}
