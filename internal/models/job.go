package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job status enums.
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

type Job struct {
	ID                   uuid.UUID        `json:"id"`
	PostedBy             uuid.UUID        `json:"posted_by"`
	WorkType             string           `json:"work_type"`
	LandSize             float64          `json:"land_size"`
	Location             string           `json:"location"`
	StartDate            *time.Time       `json:"start_date,omitempty"`
	EndDate              *time.Time       `json:"end_date,omitempty"`
	Description          string           `json:"description"`
	Status               string           `json:"status"`
	AIShortlistGenerated bool             `json:"ai_shortlist_generated"`
	AIShortlistScores    []ShortlistEntry `json:"ai_shortlist_scores"`
	ShortlistVersion     int              `json:"shortlist_version"`
	ShortlistGeneratedAt *time.Time       `json:"shortlist_generated_at,omitempty"`
	SelectedContractor   *uuid.UUID       `json:"selected_contractor,omitempty"`
	IsPaid               bool             `json:"is_paid"`
	PaymentID            *uuid.UUID       `json:"payment_id,omitempty"`
	IsFeedbackGiven      bool             `json:"is_feedback_given"`
	Version              int              `json:"-"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// IsTerminal reports whether no further transitions are possible.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCancelled
}

// InShortlist returns the shortlist entry for contractorID, if present.
func (j *Job) InShortlist(contractorID uuid.UUID) (*ShortlistEntry, bool) {
	for i := range j.AIShortlistScores {
		if j.AIShortlistScores[i].ContractorID == contractorID {
			return &j.AIShortlistScores[i], true
		}
	}
	return nil, false
}

// ShortlistEntry is one ranked candidate of a persisted shortlist.
// EstimatedCost is nil when the scorer could not price the job.
type ShortlistEntry struct {
	ContractorID  uuid.UUID `json:"contractor_id"`
	Rank          int       `json:"rank"`
	Overall       float64   `json:"overall"`
	SkillMatch    float64   `json:"skill_match"`
	Reliability   float64   `json:"reliability"`
	Experience    float64   `json:"experience"`
	Location      float64   `json:"location"`
	EstimatedCost *float64  `json:"estimated_cost,omitempty"`
	Explanation   string    `json:"explanation"`
}

// Score is the output of the external fitness scorer. Components are on 0..100.
type Score struct {
	SkillMatch    float64  `json:"skillMatch"`
	Reliability   float64  `json:"reliability"`
	Experience    float64  `json:"experience"`
	Location      float64  `json:"location"`
	Overall       float64  `json:"overall"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
