package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = `id, posted_by, work_type, land_size, location, start_date, end_date, description, status,
	ai_shortlist_generated, ai_shortlist_scores, shortlist_version, shortlist_generated_at,
	selected_contractor, is_paid, payment_id, is_feedback_given, version, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	var scores []byte
	if err := row.Scan(&j.ID, &j.PostedBy, &j.WorkType, &j.LandSize, &j.Location, &j.StartDate, &j.EndDate, &j.Description, &j.Status,
		&j.AIShortlistGenerated, &scores, &j.ShortlistVersion, &j.ShortlistGeneratedAt,
		&j.SelectedContractor, &j.IsPaid, &j.PaymentID, &j.IsFeedbackGiven, &j.Version, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &j.AIShortlistScores); err != nil {
		return nil, fmt.Errorf("decode shortlist of job %s: %w", j.ID, err)
	}
	return &j, nil
}

func encodeShortlist(entries []models.ShortlistEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.ShortlistEntry{}
	}
	return json.Marshal(entries)
}

func (r *JobRepo) Create(ctx context.Context, tx pgx.Tx, j *models.Job) error {
	scores, err := encodeShortlist(j.AIShortlistScores)
	if err != nil {
		return err
	}
	err = pick(r.pool, tx).QueryRow(ctx, `
		INSERT INTO jobs (id, posted_by, work_type, land_size, location, start_date, end_date, description, status, ai_shortlist_scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING version, created_at, updated_at
	`, j.ID, j.PostedBy, j.WorkType, j.LandSize, j.Location, j.StartDate, j.EndDate, j.Description, j.Status, scores).
		Scan(&j.Version, &j.CreatedAt, &j.UpdatedAt)
	return mapErr(err)
}

func (r *JobRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(pick(r.pool, tx).QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	return j, mapErr(err)
}

// GetByIDForUpdate locks the job row. Call within a transaction.
func (r *JobRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	return j, mapErr(err)
}

// Update writes every mutable column when the stored version still matches
// j.Version, then bumps j.Version.
func (r *JobRepo) Update(ctx context.Context, tx pgx.Tx, j *models.Job) error {
	scores, err := encodeShortlist(j.AIShortlistScores)
	if err != nil {
		return err
	}
	err = pick(r.pool, tx).QueryRow(ctx, `
		UPDATE jobs SET work_type = $3, land_size = $4, location = $5, start_date = $6, end_date = $7, description = $8,
			status = $9, ai_shortlist_generated = $10, ai_shortlist_scores = $11, shortlist_version = $12,
			shortlist_generated_at = $13, selected_contractor = $14, is_paid = $15, payment_id = $16,
			is_feedback_given = $17, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`, j.ID, j.Version, j.WorkType, j.LandSize, j.Location, j.StartDate, j.EndDate, j.Description,
		j.Status, j.AIShortlistGenerated, scores, j.ShortlistVersion,
		j.ShortlistGeneratedAt, j.SelectedContractor, j.IsPaid, j.PaymentID,
		j.IsFeedbackGiven).Scan(&j.Version, &j.UpdatedAt)
	return staleOnNoRows(err)
}

func (r *JobRepo) ListByPostedBy(ctx context.Context, tx pgx.Tx, landownerID uuid.UUID) ([]*models.Job, error) {
	return r.list(ctx, tx, `SELECT `+jobColumns+` FROM jobs WHERE posted_by = $1 ORDER BY created_at DESC`, landownerID)
}

func (r *JobRepo) ListBySelectedContractor(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]*models.Job, error) {
	return r.list(ctx, tx, `SELECT `+jobColumns+` FROM jobs WHERE selected_contractor = $1 ORDER BY created_at DESC`, contractorID)
}

func (r *JobRepo) list(ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]*models.Job, error) {
	rows, err := pick(r.pool, tx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}
