package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

// jobResponse adds the derived action-required state to a job.
type jobResponse struct {
	*models.Job
	ActionRequired string `json:"action_required"`
}

func toJobResponse(j *models.Job) jobResponse {
	return jobResponse{Job: j, ActionRequired: services.ActionRequired(j)}
}

// CreateJob handles POST /v1/jobs.
func (h *API) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	var d services.JobDraft
	if !decode(w, r, &d, false) {
		return
	}
	job, err := h.Jobs.Create(r.Context(), actor, d)
	if err != nil {
		writeServiceError(w, h.Logger, "create job", err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobResponse(job))
}

// ListJobs handles GET /v1/jobs: the landowner's posted jobs or the
// contractor's assigned ones.
func (h *API) ListJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	jobs, err := h.Jobs.ListForActor(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.Logger, "list jobs", err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetJob handles GET /v1/jobs/{id}.
func (h *API) GetJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.Jobs.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.Logger, "get job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

type transitionRequest struct {
	Status string `json:"status"`
}

// TransitionJob handles POST /v1/jobs/{id}/transition.
func (h *API) TransitionJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if !decode(w, r, &req, false) {
		return
	}
	job, err := h.Jobs.Transition(r.Context(), actor, id, req.Status)
	if err != nil {
		writeServiceError(w, h.Logger, "transition job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

type contractorRequest struct {
	ContractorID uuid.UUID `json:"contractor_id"`
}

// StartJob handles POST /v1/jobs/{id}/start: direct selection of a
// shortlisted contractor without an offer round-trip.
func (h *API) StartJob(w http.ResponseWriter, r *http.Request) {
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
	job, err := h.Jobs.StartWithContractor(r.Context(), actor, id, req.ContractorID)
	if err != nil {
		writeServiceError(w, h.Logger, "start job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

type shortlistRequest struct {
	Limit int         `json:"limit"`
	Pool  []uuid.UUID `json:"pool"`
}

// GenerateShortlist handles POST /v1/jobs/{id}/shortlist. A non-empty pool
// restricts scoring to those contractors.
func (h *API) GenerateShortlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req shortlistRequest
	if !decode(w, r, &req, true) {
		return
	}
	var (
		sl  *services.Shortlist
		err error
	)
	if len(req.Pool) > 0 {
		sl, err = h.Shortlists.GenerateFromPool(r.Context(), actor, id, req.Pool, req.Limit)
	} else {
		sl, err = h.Shortlists.Generate(r.Context(), actor, id, req.Limit)
	}
	if err != nil {
		writeServiceError(w, h.Logger, "generate shortlist", err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// GetShortlist handles GET /v1/jobs/{id}/shortlist.
func (h *API) GetShortlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sl, err := h.Shortlists.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.Logger, "get shortlist", err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}
