package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type ContractorRepo struct {
	pool *pgxpool.Pool
}

func NewContractorRepo(pool *pgxpool.Pool) *ContractorRepo {
	return &ContractorRepo{pool: pool}
}

const contractorColumns = `id, name, location, skills, rate_per_acre, ai_score, latest_job_ai_score,
	completed_jobs, rating, rating_count, version, created_at, updated_at`

func scanContractor(row pgx.Row) (*models.Contractor, error) {
	var c models.Contractor
	var rates []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Location, &c.Skills, &rates, &c.AIScore, &c.LatestJobAIScore,
		&c.CompletedJobs, &c.Rating, &c.RatingCount, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rates, &c.RatePerAcre); err != nil {
		return nil, fmt.Errorf("decode rates of contractor %s: %w", c.ID, err)
	}
	return &c, nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Create inserts the contractor profile of an existing contractor user.
func (r *ContractorRepo) Create(ctx context.Context, tx pgx.Tx, c *models.Contractor) error {
	rates, err := json.Marshal(nonNilRates(c.RatePerAcre))
	if err != nil {
		return err
	}
	c.Skills = normalizeSkills(c.Skills)
	err = pick(r.pool, tx).QueryRow(ctx, `
		INSERT INTO contractors (id, name, location, skills, rate_per_acre)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at
	`, c.ID, c.Name, c.Location, c.Skills, rates).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *ContractorRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Contractor, error) {
	c, err := scanContractor(pick(r.pool, tx).QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id))
	return c, mapErr(err)
}

// GetByIDForUpdate locks the contractor row. Call within a transaction.
func (r *ContractorRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Contractor, error) {
	c, err := scanContractor(tx.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1 FOR UPDATE`, id))
	return c, mapErr(err)
}

func (r *ContractorRepo) GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]*models.Contractor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return r.list(ctx, tx, `SELECT `+contractorColumns+` FROM contractors WHERE id = ANY($1::uuid[]) ORDER BY id`, strs)
}

// ListBySkill returns contractors whose skills include workType.
func (r *ContractorRepo) ListBySkill(ctx context.Context, tx pgx.Tx, workType string) ([]*models.Contractor, error) {
	skill := strings.ToLower(strings.TrimSpace(workType))
	return r.list(ctx, tx, `SELECT `+contractorColumns+` FROM contractors WHERE $1 = ANY(skills) ORDER BY id`, skill)
}

func (r *ContractorRepo) Update(ctx context.Context, tx pgx.Tx, c *models.Contractor) error {
	rates, err := json.Marshal(nonNilRates(c.RatePerAcre))
	if err != nil {
		return err
	}
	c.Skills = normalizeSkills(c.Skills)
	err = pick(r.pool, tx).QueryRow(ctx, `
		UPDATE contractors SET name = $3, location = $4, skills = $5, rate_per_acre = $6, ai_score = $7,
			latest_job_ai_score = $8, completed_jobs = $9, rating = $10, rating_count = $11,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`, c.ID, c.Version, c.Name, c.Location, c.Skills, rates, c.AIScore,
		c.LatestJobAIScore, c.CompletedJobs, c.Rating, c.RatingCount).Scan(&c.Version, &c.UpdatedAt)
	return staleOnNoRows(err)
}

// AppendScore adds an entry to the append-only score history. Seq orders the history.
func (r *ContractorRepo) AppendScore(ctx context.Context, tx pgx.Tx, e *models.ScoreEntry) error {
	err := pick(r.pool, tx).QueryRow(ctx, `
		INSERT INTO contractor_score_history (contractor_id, job_id, score, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`, e.ContractorID, e.JobID, e.Score, e.Timestamp).Scan(&e.Seq)
	return mapErr(err)
}

func (r *ContractorRepo) ListScores(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID) ([]models.ScoreEntry, error) {
	rows, err := pick(r.pool, tx).Query(ctx, `
		SELECT seq, contractor_id, job_id, score, recorded_at
		FROM contractor_score_history WHERE contractor_id = $1 ORDER BY seq
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ScoreEntry
	for rows.Next() {
		var e models.ScoreEntry
		if err := rows.Scan(&e.Seq, &e.ContractorID, &e.JobID, &e.Score, &e.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *ContractorRepo) list(ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]*models.Contractor, error) {
	rows, err := pick(r.pool, tx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func nonNilRates(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
