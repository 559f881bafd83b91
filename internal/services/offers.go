package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// Offer decisions.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// OfferResult is the outcome of a contractor's response. NextCandidate is set
// after a rejection when another shortlisted contractor can still be offered.
type OfferResult struct {
	Offer         *models.Notification   `json:"offer"`
	Job           *models.Job            `json:"job"`
	NextCandidate *models.ShortlistEntry `json:"next_candidate,omitempty"`
}

// OfferProtocol runs the offer handshake between landowner and contractor.
type OfferProtocol struct {
	Pool          TxBeginner
	Jobs          JobRepo
	Notifications NotificationRepo
	Lifecycle     *JobLifecycle
	Enqueue       EnqueueNotificationFunc
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewOfferProtocol returns a new OfferProtocol. enqueue may be nil.
func NewOfferProtocol(pool TxBeginner, jobs JobRepo, notifications NotificationRepo, lifecycle *JobLifecycle, enqueue EnqueueNotificationFunc, logger *slog.Logger) *OfferProtocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &OfferProtocol{
		Pool:          pool,
		Jobs:          jobs,
		Notifications: notifications,
		Lifecycle:     lifecycle,
		Enqueue:       enqueue,
		Logger:        logger,
		Now:           time.Now,
	}
}

func (o *OfferProtocol) notifier() notifier {
	return notifier{repo: o.Notifications, enqueue: o.Enqueue, now: o.Now}
}

// CreateOffer sends a job_selection offer to a shortlisted contractor.
func (o *OfferProtocol) CreateOffer(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID) (*models.Notification, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := o.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if actor.ID != job.PostedBy {
		return nil, fmt.Errorf("%w: only the job's landowner may select a contractor", ErrUnauthorized)
	}
	if job.Status != models.JobStatusOpen {
		return nil, fmt.Errorf("%w: job is %s", ErrJobNoLongerOpen, job.Status)
	}
	entry, ok := job.InShortlist(contractorID)
	if !ok {
		return nil, fmt.Errorf("%w: contractor %s is not on the shortlist", ErrInvalidInput, contractorID)
	}

	offers, err := o.Notifications.ListOffersByJob(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	for _, off := range offers {
		if off.Status == models.OfferStatusPending {
			return nil, fmt.Errorf("%w: offer %s awaits contractor %s", ErrOfferPending, off.ID, off.ContractorID)
		}
	}
	if rejected(offers, job.ShortlistVersion)[contractorID] {
		return nil, fmt.Errorf("%w: contractor %s already rejected this job", ErrAlreadyResolved, contractorID)
	}

	msg := fmt.Sprintf("You were selected (rank %d) for a %s job on %.2f acres at %s. Please accept or reject.",
		entry.Rank, job.WorkType, job.LandSize, job.Location)
	offer := &models.Notification{
		UserID:           contractorID,
		JobID:            jobID,
		ContractorID:     contractorID,
		Type:             models.NotificationJobSelection,
		Title:            "You have been selected for a job",
		Message:          msg,
		ActionRequired:   true,
		ActionType:       models.ActionTypeAcceptReject,
		Status:           models.OfferStatusPending,
		ShortlistVersion: job.ShortlistVersion,
	}
	if err := o.notifier().send(ctx, tx, offer); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	o.Logger.Info("offer created", "offer_id", offer.ID, "job_id", jobID, "contractor_id", contractorID)
	return offer, nil
}

// Respond records the contractor's decision. Accepting moves the job to
// in_progress in the same transaction.
func (o *OfferProtocol) Respond(ctx context.Context, actor models.Actor, offerID uuid.UUID, decision string) (*OfferResult, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	peek, err := o.Notifications.GetByID(ctx, tx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, err)
	}
	if !peek.IsOffer() {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}
	if actor.ID != peek.ContractorID {
		return nil, fmt.Errorf("%w: offer belongs to another contractor", ErrUnauthorized)
	}
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, fmt.Errorf("%w: decision must be accept or reject", ErrInvalidInput)
	}
	if peek.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer is %s", ErrAlreadyResolved, peek.Status)
	}

	// Job before offer, the same order every other writer uses.
	job, err := o.Jobs.GetByIDForUpdate(ctx, tx, peek.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", peek.JobID, err)
	}
	offer, err := o.Notifications.GetByIDForUpdate(ctx, tx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, err)
	}
	if offer.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer is %s", ErrAlreadyResolved, offer.Status)
	}
	if job.Status != models.JobStatusOpen {
		return nil, fmt.Errorf("%w: job is %s", ErrJobNoLongerOpen, job.Status)
	}

	now := o.Now().UTC()
	result := &OfferResult{Job: job, Offer: offer}
	if decision == DecisionAccept {
		if _, ok := job.InShortlist(offer.ContractorID); !ok {
			return nil, fmt.Errorf("%w: contractor is no longer on the shortlist", ErrAlreadyResolved)
		}
		if err := o.Lifecycle.startTx(ctx, tx, job, offer.ContractorID); err != nil {
			return nil, err
		}
		offer.Status = models.OfferStatusAccepted
	} else {
		offer.Status = models.OfferStatusRejected
	}
	offer.IsRead = true
	offer.ActionRequired = false
	offer.RespondedAt = &now
	if err := o.Notifications.Update(ctx, tx, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	if decision == DecisionReject {
		next, err := o.nextCandidateTx(ctx, tx, job)
		if err != nil {
			return nil, err
		}
		result.NextCandidate = next
	}

	verb := "accepted"
	if decision == DecisionReject {
		verb = "declined"
	}
	reply := &models.Notification{
		UserID:       job.PostedBy,
		JobID:        job.ID,
		ContractorID: offer.ContractorID,
		Type:         models.NotificationOfferResponse,
		Title:        "Contractor " + verb + " your job",
		Message:      fmt.Sprintf("The contractor %s your %s job at %s.", verb, job.WorkType, job.Location),
	}
	if err := o.notifier().send(ctx, tx, reply); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	o.Logger.Info("offer resolved", "offer_id", offer.ID, "job_id", job.ID, "decision", decision)
	return result, nil
}

// Withdraw retracts a pending offer. The contractor stays eligible.
func (o *OfferProtocol) Withdraw(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.Notification, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	peek, err := o.Notifications.GetByID(ctx, tx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, err)
	}
	if !peek.IsOffer() {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}
	job, err := o.Jobs.GetByIDForUpdate(ctx, tx, peek.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", peek.JobID, err)
	}
	if actor.ID != job.PostedBy {
		return nil, fmt.Errorf("%w: only the job's landowner may withdraw an offer", ErrUnauthorized)
	}
	offer, err := o.Notifications.GetByIDForUpdate(ctx, tx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, err)
	}
	if offer.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer is %s", ErrAlreadyResolved, offer.Status)
	}

	now := o.Now().UTC()
	offer.Status = models.OfferStatusWithdrawn
	offer.ActionRequired = false
	offer.RespondedAt = &now
	if err := o.Notifications.Update(ctx, tx, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	o.Logger.Info("offer withdrawn", "offer_id", offer.ID, "job_id", job.ID)
	return offer, nil
}

// NextCandidate returns the best shortlisted contractor not rejected under the
// current shortlist, or nil when none remain.
func (o *OfferProtocol) NextCandidate(ctx context.Context, jobID uuid.UUID) (*models.ShortlistEntry, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := o.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return o.nextCandidateTx(ctx, tx, job)
}

func (o *OfferProtocol) nextCandidateTx(ctx context.Context, tx pgx.Tx, job *models.Job) (*models.ShortlistEntry, error) {
	offers, err := o.Notifications.ListOffersByJob(ctx, tx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	excluded := rejected(offers, job.ShortlistVersion)
	best := -1
	for i, en := range job.AIShortlistScores {
		if excluded[en.ContractorID] {
			continue
		}
		if best < 0 || en.Rank < job.AIShortlistScores[best].Rank {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}
	next := job.AIShortlistScores[best]
	return &next, nil
}

// rejected returns the contractors that rejected the job under shortlist version v.
func rejected(offers []*models.Notification, v int) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, off := range offers {
		if off.Status == models.OfferStatusRejected && off.ShortlistVersion == v {
			out[off.ContractorID] = true
		}
	}
	return out
}

// List returns the user's notifications, newest first.
func (o *OfferProtocol) List(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	return o.list(ctx, userID, o.Notifications.ListByUser)
}

// ListActionable returns pending offers for the user whose job is still open.
func (o *OfferProtocol) ListActionable(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	return o.list(ctx, userID, o.Notifications.ListActionable)
}

func (o *OfferProtocol) list(ctx context.Context, userID uuid.UUID, fn func(context.Context, pgx.Tx, uuid.UUID) ([]*models.Notification, error)) ([]*models.Notification, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	list, err := fn(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (o *OfferProtocol) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := o.Notifications.CountUnread(ctx, tx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification as read. Offers keep their status.
func (o *OfferProtocol) MarkRead(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Notification, error) {
	tx, err := o.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := o.Notifications.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", id, err)
	}
	if n.UserID != actor.ID {
		return nil, fmt.Errorf("%w: notification belongs to another user", ErrUnauthorized)
	}
	if n.IsRead {
		return n, nil
	}
	n.IsRead = true
	if err := o.Notifications.Update(ctx, tx, n); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}
