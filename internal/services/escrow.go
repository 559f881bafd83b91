package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// PaymentEscrowSequencer drives payments through pending -> approved -> completed
// (or refunded) and gates feedback on a released payment.
type PaymentEscrowSequencer struct {
	Pool        TxBeginner
	Jobs        JobRepo
	Contractors ContractorRepo
	Payments    PaymentRepo
	Feedback    FeedbackRepo
	Notes       NotificationRepo
	Enqueue     EnqueueNotificationFunc
	Validate    *validator.Validate
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewPaymentEscrowSequencer returns a new PaymentEscrowSequencer. enqueue may be nil.
func NewPaymentEscrowSequencer(pool TxBeginner, jobs JobRepo, contractors ContractorRepo, payments PaymentRepo, feedback FeedbackRepo, notes NotificationRepo, enqueue EnqueueNotificationFunc, logger *slog.Logger) *PaymentEscrowSequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentEscrowSequencer{
		Pool:        pool,
		Jobs:        jobs,
		Contractors: contractors,
		Payments:    payments,
		Feedback:    feedback,
		Notes:       notes,
		Enqueue:     enqueue,
		Validate:    validator.New(),
		Logger:      logger,
		Now:         time.Now,
	}
}

// Create opens a pending payment for a completed job. Amount is in minor units.
func (s *PaymentEscrowSequencer) Create(ctx context.Context, actor models.Actor, jobID uuid.UUID, amount int64, method string) (*models.Payment, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if actor.ID != job.PostedBy {
		return nil, fmt.Errorf("%w: only the job's landowner may pay for it", ErrUnauthorized)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = "bank_transfer"
	}
	if job.Status != models.JobStatusCompleted || job.SelectedContractor == nil {
		return nil, fmt.Errorf("%w: job is %s", ErrInvalidPaymentState, job.Status)
	}

	existing, err := s.Payments.ListByJob(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for _, p := range existing {
		if p.IsActive() {
			return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentAlreadyInProgress, p.ID, p.Status)
		}
		if p.Status == models.PaymentStatusCompleted {
			return nil, fmt.Errorf("%w: job already paid by %s", ErrInvalidPaymentState, p.ID)
		}
	}

	p := &models.Payment{
		ID:           uuid.New(),
		JobID:        jobID,
		LandownerID:  job.PostedBy,
		ContractorID: *job.SelectedContractor,
		Amount:       amount,
		Method:       method,
		Status:       models.PaymentStatusPending,
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.Payments.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	s.Logger.Info("payment created", "payment_id", p.ID, "job_id", jobID, "amount", amount)
	return p, nil
}

// Approve moves a pending payment to approved. Approving twice is a no-op.
func (s *PaymentEscrowSequencer) Approve(ctx context.Context, actor models.Actor, paymentID uuid.UUID, notes string) (*models.Payment, error) {
	return s.advance(ctx, actor, paymentID, models.PaymentStatusPending, models.PaymentStatusApproved,
		func(_ context.Context, _ pgx.Tx, _ *models.Job, p *models.Payment, now time.Time) error {
			p.ApprovalNotes = notes
			p.ApprovedAt = &now
			return nil
		})
}

// Release pays out an approved payment, marks the job paid and notifies the
// contractor, all in one transaction. Releasing twice is a no-op.
func (s *PaymentEscrowSequencer) Release(ctx context.Context, actor models.Actor, paymentID uuid.UUID, transactionRef, notes string) (*models.Payment, error) {
	return s.advance(ctx, actor, paymentID, models.PaymentStatusApproved, models.PaymentStatusCompleted,
		func(ctx context.Context, tx pgx.Tx, job *models.Job, p *models.Payment, now time.Time) error {
			p.TransactionRef = transactionRef
			p.ReleaseNotes = notes
			p.ReleasedAt = &now
			p.ReceiptNumber = ReceiptNumber(p.ID)

			job.IsPaid = true
			job.PaymentID = &p.ID
			if err := s.Jobs.Update(ctx, tx, job); err != nil {
				return fmt.Errorf("mark job paid: %w", err)
			}
			n := notifier{repo: s.Notes, enqueue: s.Enqueue, now: s.Now}
			return n.send(ctx, tx, &models.Notification{
				UserID:       p.ContractorID,
				JobID:        job.ID,
				ContractorID: p.ContractorID,
				Type:         models.NotificationPaymentReleased,
				Title:        "Payment released",
				Message:      fmt.Sprintf("Payment %s for your %s job has been released. Receipt %s.", formatAmount(p.Amount), job.WorkType, p.ReceiptNumber),
			})
		})
}

// Refund returns an approved payment to the landowner. Refunding twice is a no-op.
func (s *PaymentEscrowSequencer) Refund(ctx context.Context, actor models.Actor, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	return s.advance(ctx, actor, paymentID, models.PaymentStatusApproved, models.PaymentStatusRefunded,
		func(_ context.Context, _ pgx.Tx, _ *models.Job, p *models.Payment, now time.Time) error {
			p.RefundReason = reason
			p.RefundedAt = &now
			return nil
		})
}

// Get returns a payment to its landowner, its contractor or an admin.
func (s *PaymentEscrowSequencer) Get(ctx context.Context, actor models.Actor, paymentID uuid.UUID) (*models.Payment, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.Payments.GetByID(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}
	if !actor.IsAdmin() && actor.ID != p.LandownerID && actor.ID != p.ContractorID {
		return nil, fmt.Errorf("%w: payment %s belongs to another job's parties", ErrUnauthorized, paymentID)
	}
	return p, nil
}

type applyFunc func(ctx context.Context, tx pgx.Tx, job *models.Job, p *models.Payment, now time.Time) error

// advance applies from -> to under the job and payment row locks, taken in
// that order. A payment already in state to, or further along the
// pending -> approved -> completed path, is returned unchanged.
func (s *PaymentEscrowSequencer) advance(ctx context.Context, actor models.Actor, paymentID uuid.UUID, from, to string, apply applyFunc) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: payment %s requires an admin", ErrUnauthorized, to)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	peek, err := s.Payments.GetByID(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}
	job, err := s.Jobs.GetByIDForUpdate(ctx, tx, peek.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", peek.JobID, err)
	}
	p, err := s.Payments.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}

	if p.Status == to || passed(p.Status, to) {
		return p, nil
	}
	if p.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentState, p.Status, to)
	}

	now := s.Now().UTC()
	p.Status = to
	if err := apply(ctx, tx, job, p, now); err != nil {
		return nil, err
	}
	if err := s.Payments.Update(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	s.Logger.Info("payment advanced", "payment_id", p.ID, "job_id", p.JobID, "from", from, "to", to, "actor_id", actor.ID)
	return p, nil
}

// forwardRank orders the release path. Refunded is off the path.
var forwardRank = map[string]int{
	models.PaymentStatusPending:   1,
	models.PaymentStatusApproved:  2,
	models.PaymentStatusCompleted: 3,
}

// passed reports whether status is beyond target on the release path.
func passed(status, target string) bool {
	s, t := forwardRank[status], forwardRank[target]
	return s > 0 && t > 0 && s > t
}

// ReceiptNumber derives the receipt number from the payment id, so it is
// unique and stable across retries.
func ReceiptNumber(paymentID uuid.UUID) string {
	return "RCPT-" + strings.ToUpper(strings.ReplaceAll(paymentID.String(), "-", ""))
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
