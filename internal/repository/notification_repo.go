package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

const notificationColumns = `n.id, n.user_id, n.job_id, n.contractor_id, n.type, n.title, n.message, n.action_required,
	n.action_type, n.is_read, n.status, n.shortlist_version, n.created_at, n.responded_at, n.delivered_at, n.version`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.JobID, &n.ContractorID, &n.Type, &n.Title, &n.Message, &n.ActionRequired,
		&n.ActionType, &n.IsRead, &n.Status, &n.ShortlistVersion, &n.CreatedAt, &n.RespondedAt, &n.DeliveredAt, &n.Version); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) Create(ctx context.Context, tx pgx.Tx, n *models.Notification) error {
	err := pick(r.pool, tx).QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, job_id, contractor_id, type, title, message, action_required,
			action_type, is_read, status, shortlist_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING version
	`, n.ID, n.UserID, n.JobID, n.ContractorID, n.Type, n.Title, n.Message, n.ActionRequired,
		n.ActionType, n.IsRead, n.Status, n.ShortlistVersion, n.CreatedAt).Scan(&n.Version)
	return mapErr(err)
}

func (r *NotificationRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(pick(r.pool, tx).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications n WHERE n.id = $1`, id))
	return n, mapErr(err)
}

// GetByIDForUpdate locks the notification row. Call within a transaction.
func (r *NotificationRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(tx.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications n WHERE n.id = $1 FOR UPDATE`, id))
	return n, mapErr(err)
}

func (r *NotificationRepo) Update(ctx context.Context, tx pgx.Tx, n *models.Notification) error {
	err := pick(r.pool, tx).QueryRow(ctx, `
		UPDATE notifications SET action_required = $3, is_read = $4, status = $5, responded_at = $6,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, n.ID, n.Version, n.ActionRequired, n.IsRead, n.Status, n.RespondedAt).Scan(&n.Version)
	return staleOnNoRows(err)
}

// MarkDelivered stamps delivered_at once. It is called by the delivery worker
// outside any engine transaction.
func (r *NotificationRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications SET delivered_at = $2 WHERE id = $1 AND delivered_at IS NULL
	`, id, at)
	return err
}

func (r *NotificationRepo) ListOffersByJob(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) ([]*models.Notification, error) {
	return r.list(ctx, tx, `
		SELECT `+notificationColumns+` FROM notifications n
		WHERE n.job_id = $1 AND n.type = $2 AND n.action_type = $3
		ORDER BY n.created_at DESC
	`, jobID, models.NotificationJobSelection, models.ActionTypeAcceptReject)
}

func (r *NotificationRepo) ListByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]*models.Notification, error) {
	return r.list(ctx, tx, `
		SELECT `+notificationColumns+` FROM notifications n
		WHERE n.user_id = $1 ORDER BY n.created_at DESC LIMIT 200
	`, userID)
}

// ListActionable returns pending offers for the user whose job is still open.
func (r *NotificationRepo) ListActionable(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]*models.Notification, error) {
	return r.list(ctx, tx, `
		SELECT `+notificationColumns+` FROM notifications n
		JOIN jobs j ON j.id = n.job_id
		WHERE n.user_id = $1 AND n.action_required AND n.status = $2 AND j.status = $3
		ORDER BY n.created_at DESC
	`, userID, models.OfferStatusPending, models.JobStatusOpen)
}

func (r *NotificationRepo) CountUnread(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	err := pick(r.pool, tx).QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

func (r *NotificationRepo) list(ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]*models.Notification, error) {
	rows, err := pick(r.pool, tx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
