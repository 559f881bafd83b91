package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the user and, for contractors, the contractor profile in one
// transaction.
func (r *Repository) Create(ctx context.Context, u *models.User, profile *ContractorProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.Name, u.Role).Scan(&u.ID, &u.CreatedAt); err != nil {
		return err
	}

	if profile != nil {
		skills := make([]string, 0, len(profile.Skills))
		for _, s := range profile.Skills {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				skills = append(skills, s)
			}
		}
		rates := profile.RatePerAcre
		if rates == nil {
			rates = map[string]float64{}
		}
		rateJSON, err := json.Marshal(rates)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO contractors (id, name, location, skills, rate_per_acre)
			VALUES ($1, $2, $3, $4, $5)
		`, u.ID, u.Name, profile.Location, skills, rateJSON); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByEmail returns the user for login. Returns nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
