package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// ProfileUpdate is the contractor-editable part of a profile. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name        *string            `json:"name" validate:"omitnil,min=1,max=120"`
	Location    *string            `json:"location" validate:"omitnil,max=200"`
	Skills      []string           `json:"skills" validate:"omitempty,dive,required,max=64"`
	RatePerAcre map[string]float64 `json:"rate_per_acre" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}

// ContractorDirectory serves contractor profiles. Scores, ratings and job
// counts are owned by the workflow and cannot be edited here.
type ContractorDirectory struct {
	Pool        TxBeginner
	Contractors ContractorRepo
	Validate    *validator.Validate
}

// NewContractorDirectory returns a new ContractorDirectory.
func NewContractorDirectory(pool TxBeginner, contractors ContractorRepo) *ContractorDirectory {
	return &ContractorDirectory{Pool: pool, Contractors: contractors, Validate: validator.New()}
}

// UpdateProfile applies u to the calling contractor's own profile.
func (d *ContractorDirectory) UpdateProfile(ctx context.Context, actor models.Actor, u ProfileUpdate) (*models.Contractor, error) {
	if actor.Role != models.RoleContractor {
		return nil, fmt.Errorf("%w: only contractors have profiles", ErrUnauthorized)
	}
	if err := d.Validate.Struct(u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := d.apply(ctx, tx, actor, u)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return c, nil
}

func (d *ContractorDirectory) apply(ctx context.Context, tx pgx.Tx, actor models.Actor, u ProfileUpdate) (*models.Contractor, error) {
	c, err := d.Contractors.GetByIDForUpdate(ctx, tx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("contractor %s: %w", actor.ID, err)
	}
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Location != nil {
		c.Location = strings.TrimSpace(*u.Location)
	}
	if u.Skills != nil {
		skills := make([]string, 0, len(u.Skills))
		for _, s := range u.Skills {
			skills = append(skills, strings.ToLower(strings.TrimSpace(s)))
		}
		c.Skills = skills
	}
	if u.RatePerAcre != nil {
		rates := make(map[string]float64, len(u.RatePerAcre))
		for k, v := range u.RatePerAcre {
			rates[strings.ToLower(strings.TrimSpace(k))] = v
		}
		c.RatePerAcre = rates
	}
	if err := d.Contractors.Update(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("update contractor: %w", err)
	}
	return c, nil
}

// Get returns a contractor profile.
func (d *ContractorDirectory) Get(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	c, err := d.Contractors.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("contractor %s: %w", id, err)
	}
	return c, nil
}
