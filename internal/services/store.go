package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/delivery"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// JobRepo is the job persistence contract. Update is guarded by Version and
// returns models.ErrStaleState when the row moved on.
type JobRepo interface {
	Create(ctx context.Context, tx pgx.Tx, j *models.Job) error
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, tx pgx.Tx, j *models.Job) error
	ListByPostedBy(ctx context.Context, tx pgx.Tx, landownerID uuid.UUID) ([]*models.Job, error)
	ListBySelectedContractor(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]*models.Job, error)
}

// ContractorRepo is the contractor profile and score history contract.
type ContractorRepo interface {
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Contractor, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Contractor, error)
	GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]*models.Contractor, error)
	ListBySkill(ctx context.Context, tx pgx.Tx, workType string) ([]*models.Contractor, error)
	Update(ctx context.Context, tx pgx.Tx, c *models.Contractor) error
	AppendScore(ctx context.Context, tx pgx.Tx, e *models.ScoreEntry) error
	ListScores(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]models.ScoreEntry, error)
}

// NotificationRepo stores offers and informational notifications.
type NotificationRepo interface {
	Create(ctx context.Context, tx pgx.Tx, n *models.Notification) error
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Notification, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Notification, error)
	Update(ctx context.Context, tx pgx.Tx, n *models.Notification) error
	ListOffersByJob(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) ([]*models.Notification, error)
	ListByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]*models.Notification, error)
	ListActionable(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]*models.Notification, error)
	CountUnread(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
}

// PaymentRepo is the escrow payment contract.
type PaymentRepo interface {
	Create(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	ListByJob(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) ([]*models.Payment, error)
}

// FeedbackRepo stores one feedback per (job, contractor). Create returns
// models.ErrDuplicate when the pair already exists.
type FeedbackRepo interface {
	Create(ctx context.Context, tx pgx.Tx, f *models.Feedback) error
	GetByJobAndContractor(ctx context.Context, tx pgx.Tx, jobID, contractorID uuid.UUID) (*models.Feedback, error)
	ListByContractor(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]*models.Feedback, error)
}

// EnqueueNotificationFunc enqueues delivery of a notification within the given
// transaction. Provided by main using river.Client.InsertTx.
type EnqueueNotificationFunc func(ctx context.Context, tx pgx.Tx, args delivery.NotificationArgs) error
