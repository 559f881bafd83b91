package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// Scorer produces a fitness score for one contractor on one job.
type Scorer interface {
	Score(ctx context.Context, job *models.Job, c *models.Contractor) (*models.Score, error)
}

// HTTPScorer calls an external scoring service.
type HTTPScorer struct {
	client    *resty.Client
	validator *ScoreValidator
}

// NewHTTPScorer returns a scorer posting to baseURL + "/score".
func NewHTTPScorer(baseURL, apiKey string, timeout time.Duration) (*HTTPScorer, error) {
	v, err := NewScoreValidator()
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPScorer{client: client, validator: v}, nil
}

type scoreRequest struct {
	Job        *models.Job        `json:"job"`
	Contractor *models.Contractor `json:"contractor"`
}

func (s *HTTPScorer) Score(ctx context.Context, job *models.Job, c *models.Contractor) (*models.Score, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(scoreRequest{Job: job, Contractor: c}).
		Post("/score")
	if err != nil {
		return nil, fmt.Errorf("call scorer: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("scorer returned status %d", resp.StatusCode())
	}
	return s.validator.Decode(resp.Body())
}

// Heuristic weights for the local scorer.
const (
	weightSkill       = 0.40
	weightReliability = 0.25
	weightExperience  = 0.20
	weightLocation    = 0.15
)

// HeuristicScorer is a deterministic local scorer used when no external scorer
// is configured.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(_ context.Context, job *models.Job, c *models.Contractor) (*models.Score, error) {
	skill := 0.0
	if c.HasSkill(job.WorkType) {
		skill = 100
	} else if len(c.Skills) > 0 {
		skill = 20
	}

	// Unrated contractors start at a neutral reliability.
	reliability := 50.0
	if c.RatingCount > 0 {
		reliability = c.Rating / 5 * 100
	}

	experience := math.Min(float64(c.CompletedJobs)*10, 100)

	location := 40.0
	if job.Location != "" && strings.EqualFold(strings.TrimSpace(job.Location), strings.TrimSpace(c.Location)) {
		location = 100
	}

	overall := skill*weightSkill + reliability*weightReliability + experience*weightExperience + location*weightLocation

	var cost *float64
	if rate, ok := c.RatePerAcre[strings.ToLower(strings.TrimSpace(job.WorkType))]; ok && rate > 0 && job.LandSize > 0 {
		v := math.Round(rate*job.LandSize*100) / 100
		cost = &v
	}

	return &models.Score{
		SkillMatch:    skill,
		Reliability:   math.Round(reliability*100) / 100,
		Experience:    experience,
		Location:      location,
		Overall:       math.Round(overall*100) / 100,
		EstimatedCost: cost,
	}, nil
}
