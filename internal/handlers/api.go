package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

// JobService is the job lifecycle surface used by the handlers.
type JobService interface {
	Create(ctx context.Context, actor models.Actor, d services.JobDraft) (*models.Job, error)
	Get(ctx context.Context, actor models.Actor, jobID uuid.UUID) (*models.Job, error)
	ListForActor(ctx context.Context, actor models.Actor) ([]*models.Job, error)
	Transition(ctx context.Context, actor models.Actor, jobID uuid.UUID, newStatus string) (*models.Job, error)
	StartWithContractor(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID) (*models.Job, error)
}

// ShortlistService generates and reads job shortlists.
type ShortlistService interface {
	Generate(ctx context.Context, actor models.Actor, jobID uuid.UUID, limit int) (*services.Shortlist, error)
	GenerateFromPool(ctx context.Context, actor models.Actor, jobID uuid.UUID, pool []uuid.UUID, limit int) (*services.Shortlist, error)
	Get(ctx context.Context, actor models.Actor, jobID uuid.UUID) (*services.Shortlist, error)
}

// OfferService runs offers and the notification inbox.
type OfferService interface {
	CreateOffer(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID) (*models.Notification, error)
	Respond(ctx context.Context, actor models.Actor, offerID uuid.UUID, decision string) (*services.OfferResult, error)
	Withdraw(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	ListActionable(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Notification, error)
}

// EscrowService sequences payments and gates feedback on release.
type EscrowService interface {
	Create(ctx context.Context, actor models.Actor, jobID uuid.UUID, amount int64, method string) (*models.Payment, error)
	Approve(ctx context.Context, actor models.Actor, paymentID uuid.UUID, notes string) (*models.Payment, error)
	Release(ctx context.Context, actor models.Actor, paymentID uuid.UUID, transactionRef, notes string) (*models.Payment, error)
	Refund(ctx context.Context, actor models.Actor, paymentID uuid.UUID, reason string) (*models.Payment, error)
	Get(ctx context.Context, actor models.Actor, paymentID uuid.UUID) (*models.Payment, error)
	CanSubmitFeedback(ctx context.Context, jobID uuid.UUID) (*services.FeedbackEligibility, error)
	SubmitFeedback(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID, in services.FeedbackInput) (*models.Feedback, error)
	ListFeedback(ctx context.Context, contractorID uuid.UUID) ([]*models.Feedback, error)
}

// ContractorService reads contractor profiles and scores.
type ContractorService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	UpdateProfile(ctx context.Context, actor models.Actor, u services.ProfileUpdate) (*models.Contractor, error)
}

// ScoreService reads AI score history.
type ScoreService interface {
	GetProfile(ctx context.Context, contractorID uuid.UUID) (*services.ScoreProfile, error)
}

// API serves the /v1 workflow endpoints.
type API struct {
	Jobs        JobService
	Shortlists  ShortlistService
	Offers      OfferService
	Escrow      EscrowService
	Contractors ContractorService
	Scores      ScoreService
	Logger      *slog.Logger
}
