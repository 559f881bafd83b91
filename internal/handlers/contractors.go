package handlers

import (
	"net/http"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

// GetContractor handles GET /v1/contractors/{id}.
func (h *API) GetContractor(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorOr401(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Contractors.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "get contractor", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateMyProfile handles PUT /v1/contractors/me.
func (h *API) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	var u services.ProfileUpdate
	if !decode(w, r, &u, false) {
		return
	}
	c, err := h.Contractors.UpdateProfile(r.Context(), actor, u)
	if err != nil {
		writeServiceError(w, h.Logger, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetScore handles GET /v1/contractors/{id}/score.
func (h *API) GetScore(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorOr401(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Scores.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "get score", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListFeedback handles GET /v1/contractors/{id}/feedback.
func (h *API) ListFeedback(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorOr401(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.Escrow.ListFeedback(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "list feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
