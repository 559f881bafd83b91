package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, job_id, landowner_id, contractor_id, amount, method, status, transaction_ref,
	COALESCE(receipt_number, ''), approval_notes, release_notes, refund_reason, created_at,
	approved_at, released_at, refunded_at, version`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	if err := row.Scan(&p.ID, &p.JobID, &p.LandownerID, &p.ContractorID, &p.Amount, &p.Method, &p.Status, &p.TransactionRef,
		&p.ReceiptNumber, &p.ApprovalNotes, &p.ReleaseNotes, &p.RefundReason, &p.CreatedAt,
		&p.ApprovedAt, &p.ReleasedAt, &p.RefundedAt, &p.Version); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	err := pick(r.pool, tx).QueryRow(ctx, `
		INSERT INTO payments (id, job_id, landowner_id, contractor_id, amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version
	`, p.ID, p.JobID, p.LandownerID, p.ContractorID, p.Amount, p.Method, p.Status, p.CreatedAt).Scan(&p.Version)
	return mapErr(err)
}

func (r *PaymentRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(pick(r.pool, tx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	return p, mapErr(err)
}

// GetByIDForUpdate locks the payment row. Call within a transaction.
func (r *PaymentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	return p, mapErr(err)
}

func (r *PaymentRepo) Update(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	err := pick(r.pool, tx).QueryRow(ctx, `
		UPDATE payments SET status = $3, transaction_ref = $4, receipt_number = NULLIF($5, ''),
			approval_notes = $6, release_notes = $7, refund_reason = $8,
			approved_at = $9, released_at = $10, refunded_at = $11, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, p.ID, p.Version, p.Status, p.TransactionRef, p.ReceiptNumber,
		p.ApprovalNotes, p.ReleaseNotes, p.RefundReason,
		p.ApprovedAt, p.ReleasedAt, p.RefundedAt).Scan(&p.Version)
	return staleOnNoRows(err)
}

func (r *PaymentRepo) ListByJob(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) ([]*models.Payment, error) {
	rows, err := pick(r.pool, tx).Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
