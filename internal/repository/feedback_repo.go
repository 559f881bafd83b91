package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

const feedbackColumns = `id, job_id, contractor_id, landowner_id, quality, communication, timeliness, professionalism,
	comment, would_recommend, overall_score, created_at`

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	if err := row.Scan(&f.ID, &f.JobID, &f.ContractorID, &f.LandownerID, &f.Quality, &f.Communication, &f.Timeliness, &f.Professionalism,
		&f.Comment, &f.WouldRecommend, &f.OverallScore, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts the feedback. A second row for the same job and contractor
// violates the unique key and returns models.ErrDuplicate.
func (r *FeedbackRepo) Create(ctx context.Context, tx pgx.Tx, f *models.Feedback) error {
	_, err := pick(r.pool, tx).Exec(ctx, `
		INSERT INTO feedback (id, job_id, contractor_id, landowner_id, quality, communication, timeliness, professionalism,
			comment, would_recommend, overall_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, f.ID, f.JobID, f.ContractorID, f.LandownerID, f.Quality, f.Communication, f.Timeliness, f.Professionalism,
		f.Comment, f.WouldRecommend, f.OverallScore, f.CreatedAt)
	return mapErr(err)
}

func (r *FeedbackRepo) GetByJobAndContractor(ctx context.Context, tx pgx.Tx, jobID, contractorID uuid.UUID) (*models.Feedback, error) {
	f, err := scanFeedback(pick(r.pool, tx).QueryRow(ctx, `
		SELECT `+feedbackColumns+` FROM feedback WHERE job_id = $1 AND contractor_id = $2
	`, jobID, contractorID))
	return f, mapErr(err)
}

func (r *FeedbackRepo) ListByContractor(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]*models.Feedback, error) {
	rows, err := pick(r.pool, tx).Query(ctx, `
		SELECT `+feedbackColumns+` FROM feedback WHERE contractor_id = $1 ORDER BY created_at DESC
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}
