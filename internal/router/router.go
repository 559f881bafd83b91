package router

import (
	"net/http"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/auth"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/handlers"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/middleware"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// New returns an http.Handler that serves the API under /v1. Everything but
// register, login and health requires a bearer token.
func New(authHandler *auth.Handler, api *handlers.API, tokens middleware.TokenValidator) http.Handler {
	mux := http.NewServeMux()
	bearer := middleware.BearerAuth(tokens)
	admin := middleware.RequireRole(models.RoleAdmin)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, bearer(h))
	}
	adminOnly := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, bearer(admin(h)))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)

	protected("POST /v1/jobs", api.CreateJob)
	protected("GET /v1/jobs", api.ListJobs)
	protected("GET /v1/jobs/{id}", api.GetJob)
	protected("POST /v1/jobs/{id}/transition", api.TransitionJob)
	protected("POST /v1/jobs/{id}/start", api.StartJob)
	protected("POST /v1/jobs/{id}/shortlist", api.GenerateShortlist)
	protected("GET /v1/jobs/{id}/shortlist", api.GetShortlist)

	protected("POST /v1/jobs/{id}/offers", api.CreateOffer)
	protected("POST /v1/offers/{id}/respond", api.RespondToOffer)
	protected("POST /v1/offers/{id}/withdraw", api.WithdrawOffer)

	protected("GET /v1/notifications", api.ListNotifications)
	protected("GET /v1/notifications/actionable", api.ListActionable)
	protected("GET /v1/notifications/unread-count", api.UnreadCount)
	protected("POST /v1/notifications/{id}/read", api.MarkRead)

	protected("POST /v1/jobs/{id}/payments", api.CreatePayment)
	protected("GET /v1/payments/{id}", api.GetPayment)
	adminOnly("POST /v1/payments/{id}/approve", api.ApprovePayment)
	adminOnly("POST /v1/payments/{id}/release", api.ReleasePayment)
	adminOnly("POST /v1/payments/{id}/refund", api.RefundPayment)

	protected("GET /v1/jobs/{id}/feedback-eligibility", api.FeedbackEligibility)
	protected("POST /v1/jobs/{id}/feedback", api.SubmitFeedback)

	protected("PUT /v1/contractors/me", api.UpdateMyProfile)
	protected("GET /v1/contractors/{id}", api.GetContractor)
	protected("GET /v1/contractors/{id}/score", api.GetScore)
	protected("GET /v1/contractors/{id}/feedback", api.ListFeedback)

	return mux
}
