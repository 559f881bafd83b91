package handlers

import (
	"net/http"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// CreateOffer handles POST /v1/jobs/{id}/offers.
func (h *API) CreateOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req contractorRequest
	if !decode(w, r, &req, false) {
		return
	}
	offer, err := h.Offers.CreateOffer(r.Context(), actor, id, req.ContractorID)
	if err != nil {
		writeServiceError(w, h.Logger, "create offer", err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

type respondRequest struct {
	Decision string `json:"decision"`
}

// RespondToOffer handles POST /v1/offers/{id}/respond.
func (h *API) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req respondRequest
	if !decode(w, r, &req, false) {
		return
	}
	res, err := h.Offers.Respond(r.Context(), actor, id, req.Decision)
	if err != nil {
		writeServiceError(w, h.Logger, "respond to offer", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Offer         *models.Notification   `json:"offer"`
		Job           jobResponse            `json:"job"`
		NextCandidate *models.ShortlistEntry `json:"next_candidate,omitempty"`
	}{res.Offer, toJobResponse(res.Job), res.NextCandidate})
}

// WithdrawOffer handles POST /v1/offers/{id}/withdraw.
func (h *API) WithdrawOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	offer, err := h.Offers.Withdraw(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.Logger, "withdraw offer", err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// ListNotifications handles GET /v1/notifications.
func (h *API) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	notes, err := h.Offers.List(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, h.Logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListActionable handles GET /v1/notifications/actionable: pending offers
// whose job is still open.
func (h *API) ListActionable(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	notes, err := h.Offers.ListActionable(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, h.Logger, "list actionable", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *API) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	n, err := h.Offers.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, h.Logger, "unread count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead handles POST /v1/notifications/{id}/read.
func (h *API) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Offers.MarkRead(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.Logger, "mark read", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
