package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// ScoreProfile is the read model of a contractor's AI fitness history.
type ScoreProfile struct {
	ContractorID     uuid.UUID           `json:"contractor_id"`
	AIScore          float64             `json:"ai_score"`
	LatestJobAIScore float64             `json:"latest_job_ai_score"`
	History          []models.ScoreEntry `json:"history"`
}

// ScoreAggregator keeps each contractor's shortlist score history and the
// lifetime mean derived from it.
type ScoreAggregator struct {
	Pool        TxBeginner
	Contractors ContractorRepo
	Now         func() time.Time
}

// NewScoreAggregator returns a new ScoreAggregator.
func NewScoreAggregator(pool TxBeginner, contractors ContractorRepo) *ScoreAggregator {
	return &ScoreAggregator{Pool: pool, Contractors: contractors, Now: time.Now}
}

// RecordShortlistAppearance appends overall (0..100) to the contractor's
// history in its own transaction.
func (s *ScoreAggregator) RecordShortlistAppearance(ctx context.Context, contractorID, jobID uuid.UUID, overall float64) (*ScoreProfile, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	profile, err := s.recordTx(ctx, tx, contractorID, jobID, overall)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return profile, nil
}

// recordTx locks the contractor row, appends the entry and recomputes the mean
// over the full history. Concurrent appends queue on the row lock, so the mean
// always covers every committed entry.
func (s *ScoreAggregator) recordTx(ctx context.Context, tx pgx.Tx, contractorID, jobID uuid.UUID, overall float64) (*ScoreProfile, error) {
	c, err := s.Contractors.GetByIDForUpdate(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("contractor %s: %w", contractorID, err)
	}

	entry := &models.ScoreEntry{
		ContractorID: contractorID,
		JobID:        jobID,
		Score:        normalizeScore(overall),
		Timestamp:    s.Now().UTC(),
	}
	if err := s.Contractors.AppendScore(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("append score: %w", err)
	}

	history, err := s.Contractors.ListScores(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	c.AIScore = meanScore(history)
	c.LatestJobAIScore = entry.Score
	if err := s.Contractors.Update(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("update contractor score: %w", err)
	}
	return &ScoreProfile{
		ContractorID:     contractorID,
		AIScore:          c.AIScore,
		LatestJobAIScore: c.LatestJobAIScore,
		History:          history,
	}, nil
}

// GetProfile returns the contractor's score profile without mutating it.
func (s *ScoreAggregator) GetProfile(ctx context.Context, contractorID uuid.UUID) (*ScoreProfile, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := s.Contractors.GetByID(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("contractor %s: %w", contractorID, err)
	}
	history, err := s.Contractors.ListScores(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	if history == nil {
		history = []models.ScoreEntry{}
	}
	return &ScoreProfile{
		ContractorID:     c.ID,
		AIScore:          c.AIScore,
		LatestJobAIScore: c.LatestJobAIScore,
		History:          history,
	}, nil
}

// normalizeScore maps the scorer's 0..100 overall onto the 0..1 profile scale.
func normalizeScore(overall float64) float64 {
	s := overall / 100
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func meanScore(history []models.ScoreEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, e := range history {
		sum += e.Score
	}
	return sum / float64(len(history))
}
