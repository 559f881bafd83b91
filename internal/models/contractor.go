package models

import (
	"time"

	"github.com/google/uuid"
)

type Contractor struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Location         string             `json:"location"`
	Skills           []string           `json:"skills"`
	RatePerAcre      map[string]float64 `json:"rate_per_acre"`
	AIScore          float64            `json:"ai_score"`
	LatestJobAIScore float64            `json:"latest_job_ai_score"`
	CompletedJobs    int                `json:"completed_jobs"`
	Rating           float64            `json:"rating"`
	RatingCount      int                `json:"rating_count"`
	Version          int                `json:"-"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// HasSkill reports whether the contractor lists workType (case-insensitive).
func (c *Contractor) HasSkill(workType string) bool {
	for _, s := range c.Skills {
		if equalFold(s, workType) {
			return true
		}
	}
	return false
}

// ScoreEntry is one append-only element of a contractor's score history.
// Seq is assigned by the store and defines the history order.
type ScoreEntry struct {
	Seq          int64     `json:"seq"`
	ContractorID uuid.UUID `json:"contractor_id"`
	JobID        uuid.UUID `json:"job_id"`
	Score        float64   `json:"score"`
	Timestamp    time.Time `json:"timestamp"`
}
