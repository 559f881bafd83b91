package models

import (
	"time"

	"github.com/google/uuid"
)

// Ratings are the four 1..5 sub-ratings a landowner gives a contractor.
type Ratings struct {
	Quality         int `json:"quality" validate:"min=1,max=5"`
	Communication   int `json:"communication" validate:"min=1,max=5"`
	Timeliness      int `json:"timeliness" validate:"min=1,max=5"`
	Professionalism int `json:"professionalism" validate:"min=1,max=5"`
}

type Feedback struct {
	ID           uuid.UUID `json:"id"`
	JobID        uuid.UUID `json:"job_id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	LandownerID  uuid.UUID `json:"landowner_id"`
	Ratings
	Comment        string    `json:"comment"`
	WouldRecommend bool      `json:"would_recommend"`
	OverallScore   int       `json:"overall_score"`
	CreatedAt      time.Time `json:"created_at"`
}
