package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

type createPaymentRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

// CreatePayment handles POST /v1/jobs/{id}/payments. Amount is in minor units.
func (h *API) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createPaymentRequest
	if !decode(w, r, &req, false) {
		return
	}
	p, err := h.Escrow.Create(r.Context(), actor, id, req.Amount, req.Method)
	if err != nil {
		writeServiceError(w, h.Logger, "create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPayment handles GET /v1/payments/{id}.
func (h *API) GetPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Escrow.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.Logger, "get payment", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type paymentActionRequest struct {
	Notes          string `json:"notes"`
	TransactionRef string `json:"transaction_ref"`
	Reason         string `json:"reason"`
}

// paymentAction reads the actor, payment id and optional body shared by the
// admin escrow actions.
func paymentAction(w http.ResponseWriter, r *http.Request) (models.Actor, uuid.UUID, paymentActionRequest, bool) {
	var req paymentActionRequest
	actor, ok := actorOr401(w, r)
	if !ok {
		return actor, uuid.Nil, req, false
	}
	id, ok := pathID(w, r)
	if !ok {
		return actor, id, req, false
	}
	if !decode(w, r, &req, true) {
		return actor, id, req, false
	}
	return actor, id, req, true
}

// ApprovePayment handles POST /v1/payments/{id}/approve.
func (h *API) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := paymentAction(w, r)
	if !ok {
		return
	}
	p, err := h.Escrow.Approve(r.Context(), actor, id, req.Notes)
	if err != nil {
		writeServiceError(w, h.Logger, "approve payment", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ReleasePayment handles POST /v1/payments/{id}/release. Repeating a release
// returns the already released payment with its receipt.
func (h *API) ReleasePayment(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := paymentAction(w, r)
	if !ok {
		return
	}
	p, err := h.Escrow.Release(r.Context(), actor, id, req.TransactionRef, req.Notes)
	if err != nil {
		writeServiceError(w, h.Logger, "release payment", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RefundPayment handles POST /v1/payments/{id}/refund.
func (h *API) RefundPayment(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := paymentAction(w, r)
	if !ok {
		return
	}
	p, err := h.Escrow.Refund(r.Context(), actor, id, req.Reason)
	if err != nil {
		writeServiceError(w, h.Logger, "refund payment", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// FeedbackEligibility handles GET /v1/jobs/{id}/feedback-eligibility.
func (h *API) FeedbackEligibility(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorOr401(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.Escrow.CanSubmitFeedback(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "feedback eligibility", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type feedbackRequest struct {
	ContractorID uuid.UUID `json:"contractor_id"`
	services.FeedbackInput
}

// SubmitFeedback handles POST /v1/jobs/{id}/feedback. A repeat submission is
// reported as already submitted rather than as a failure.
func (h *API) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decode(w, r, &req, false) {
		return
	}
	fb, err := h.Escrow.SubmitFeedback(r.Context(), actor, id, req.ContractorID, req.FeedbackInput)
	if services.IsAlreadySatisfied(err) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_submitted"})
		return
	}
	if err != nil {
		writeServiceError(w, h.Logger, "submit feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}
