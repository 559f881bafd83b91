package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// FeedbackInput is the landowner's review of the selected contractor.
type FeedbackInput struct {
	models.Ratings
	Comment        string `json:"comment" validate:"max=2000"`
	WouldRecommend bool   `json:"would_recommend"`
}

// FeedbackEligibility reports whether feedback may be submitted for a job.
type FeedbackEligibility struct {
	JobID     uuid.UUID `json:"job_id"`
	CanSubmit bool      `json:"can_submit"`
	Reason    string    `json:"reason,omitempty"`
}

// CanSubmitFeedback reports whether the job is paid, has a released payment
// and has no feedback yet.
func (s *PaymentEscrowSequencer) CanSubmitFeedback(ctx context.Context, jobID uuid.UUID) (*FeedbackEligibility, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	reason, err := s.feedbackGateTx(ctx, tx, job)
	if err != nil {
		return nil, err
	}
	return &FeedbackEligibility{JobID: jobID, CanSubmit: reason == "", Reason: reason}, nil
}

// feedbackGateTx returns "" when feedback is allowed, otherwise why not.
func (s *PaymentEscrowSequencer) feedbackGateTx(ctx context.Context, tx pgx.Tx, job *models.Job) (string, error) {
	if job.IsFeedbackGiven {
		return "feedback already submitted", nil
	}
	if !job.IsPaid {
		return "payment not released", nil
	}
	payments, err := s.Payments.ListByJob(ctx, tx, job.ID)
	if err != nil {
		return "", fmt.Errorf("list payments: %w", err)
	}
	for _, p := range payments {
		if p.Status == models.PaymentStatusCompleted {
			return "", nil
		}
	}
	return "payment not released", nil
}

// SubmitFeedback stores the landowner's feedback and folds it into the
// contractor's rating. A job accepts feedback once.
func (s *PaymentEscrowSequencer) SubmitFeedback(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID, in FeedbackInput) (*models.Feedback, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if actor.ID != job.PostedBy {
		return nil, fmt.Errorf("%w: only the job's landowner may leave feedback", ErrUnauthorized)
	}
	if err := s.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if job.SelectedContractor == nil || *job.SelectedContractor != contractorID {
		return nil, fmt.Errorf("%w: contractor %s did not work this job", ErrInvalidInput, contractorID)
	}
	if job.IsFeedbackGiven {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrDuplicateFeedback)
	}
	if _, err := s.Feedback.GetByJobAndContractor(ctx, tx, jobID, contractorID); err == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrDuplicateFeedback)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup feedback: %w", err)
	}
	reason, err := s.feedbackGateTx(ctx, tx, job)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrFeedbackLocked, reason)
	}

	mean := ratingMean(in.Ratings)
	fb := &models.Feedback{
		ID:             uuid.New(),
		JobID:          jobID,
		ContractorID:   contractorID,
		LandownerID:    actor.ID,
		Ratings:        in.Ratings,
		Comment:        strings.TrimSpace(in.Comment),
		WouldRecommend: in.WouldRecommend,
		OverallScore:   int(math.Round(mean)),
		CreatedAt:      s.Now().UTC(),
	}
	if err := s.Feedback.Create(ctx, tx, fb); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrDuplicateFeedback)
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	job.IsFeedbackGiven = true
	if err := s.Jobs.Update(ctx, tx, job); err != nil {
		return nil, fmt.Errorf("mark feedback given: %w", err)
	}

	c, err := s.Contractors.GetByIDForUpdate(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("contractor %s: %w", contractorID, err)
	}
	c.Rating = (c.Rating*float64(c.RatingCount) + mean) / float64(c.RatingCount+1)
	c.RatingCount++
	if err := s.Contractors.Update(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("update rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	s.Logger.Info("feedback submitted", "job_id", jobID, "contractor_id", contractorID, "overall", fb.OverallScore)
	return fb, nil
}

// ListFeedback returns the feedback a contractor has received.
func (s *PaymentEscrowSequencer) ListFeedback(ctx context.Context, contractorID uuid.UUID) ([]*models.Feedback, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	list, err := s.Feedback.ListByContractor(ctx, tx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if list == nil {
		list = []*models.Feedback{}
	}
	return list, nil
}

func ratingMean(r models.Ratings) float64 {
	return float64(r.Quality+r.Communication+r.Timeliness+r.Professionalism) / 4
}
