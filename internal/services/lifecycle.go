package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// Derived action-required states of a job.
const (
	ActionNone            = "none"
	ActionPaymentPending  = "payment_pending"
	ActionFeedbackPending = "feedback_pending"
)

// ActionRequired derives what a job still needs. This is the only place the
// rule is computed.
func ActionRequired(j *models.Job) string {
	if j.Status != models.JobStatusCompleted {
		return ActionNone
	}
	if !j.IsPaid {
		return ActionPaymentPending
	}
	if !j.IsFeedbackGiven {
		return ActionFeedbackPending
	}
	return ActionNone
}

// JobDraft is the landowner input for a new job.
type JobDraft struct {
	WorkType    string     `json:"work_type" validate:"required,max=64"`
	LandSize    float64    `json:"land_size" validate:"gt=0"`
	Location    string     `json:"location" validate:"required,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Description string     `json:"description" validate:"max=4000"`
}

// JobLifecycle is the job state machine.
type JobLifecycle struct {
	Pool        TxBeginner
	Jobs        JobRepo
	Contractors ContractorRepo
	Validate    *validator.Validate
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewJobLifecycle returns a new JobLifecycle.
func NewJobLifecycle(pool TxBeginner, jobs JobRepo, contractors ContractorRepo, logger *slog.Logger) *JobLifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobLifecycle{
		Pool:        pool,
		Jobs:        jobs,
		Contractors: contractors,
		Validate:    validator.New(),
		Logger:      logger,
		Now:         time.Now,
	}
}

// Create posts a new open job for the landowner.
func (l *JobLifecycle) Create(ctx context.Context, actor models.Actor, d JobDraft) (*models.Job, error) {
	if actor.Role != models.RoleLandowner && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only landowners post jobs", ErrUnauthorized)
	}
	if err := l.Validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	job := &models.Job{
		ID:                uuid.New(),
		PostedBy:          actor.ID,
		WorkType:          strings.ToLower(strings.TrimSpace(d.WorkType)),
		LandSize:          d.LandSize,
		Location:          strings.TrimSpace(d.Location),
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		Description:       d.Description,
		Status:            models.JobStatusOpen,
		AIShortlistScores: []models.ShortlistEntry{},
	}

	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := l.Jobs.Create(ctx, tx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	l.Logger.Info("job created", "job_id", job.ID, "posted_by", actor.ID)
	return job, nil
}

// Get returns a job to its landowner, its selected or shortlisted
// contractors, or an admin.
func (l *JobLifecycle) Get(ctx context.Context, actor models.Actor, jobID uuid.UUID) (*models.Job, error) {
	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := l.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if err := authorizeReader(actor, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ListForActor lists the jobs a landowner posted or a contractor was selected for.
func (l *JobLifecycle) ListForActor(ctx context.Context, actor models.Actor) ([]*models.Job, error) {
	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var list []*models.Job
	switch actor.Role {
	case models.RoleContractor:
		list, err = l.Jobs.ListBySelectedContractor(ctx, tx, actor.ID)
	default:
		list, err = l.Jobs.ListByPostedBy(ctx, tx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if list == nil {
		list = []*models.Job{}
	}
	return list, nil
}

// Transition moves a job to newStatus. in_progress is only reachable through
// an accepted offer or StartWithContractor.
func (l *JobLifecycle) Transition(ctx context.Context, actor models.Actor, jobID uuid.UUID, newStatus string) (*models.Job, error) {
	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := l.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	switch newStatus {
	case models.JobStatusCompleted:
		err = l.completeTx(ctx, tx, actor, job)
	case models.JobStatusCancelled:
		err = l.cancelTx(ctx, tx, actor, job)
	case models.JobStatusInProgress:
		if err = authorizeOwner(actor, job); err == nil {
			err = fmt.Errorf("%w: in_progress requires an accepted offer or a selected contractor", ErrInvalidTransition)
		}
	case models.JobStatusOpen:
		if err = authorizeOwner(actor, job); err == nil {
			err = fmt.Errorf("%w: %s -> open", ErrInvalidTransition, job.Status)
		}
	default:
		err = fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	l.Logger.Info("job transitioned", "job_id", job.ID, "status", job.Status, "actor_id", actor.ID)
	return job, nil
}

// StartWithContractor is the landowner override for open -> in_progress.
// The contractor must be on the current shortlist.
func (l *JobLifecycle) StartWithContractor(ctx context.Context, actor models.Actor, jobID, contractorID uuid.UUID) (*models.Job, error) {
	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := l.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if err := authorizeOwner(actor, job); err != nil {
		return nil, err
	}
	if _, ok := job.InShortlist(contractorID); !ok {
		return nil, fmt.Errorf("%w: contractor %s is not on the shortlist", ErrInvalidTransition, contractorID)
	}
	if err := l.startTx(ctx, tx, job, contractorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	l.Logger.Info("job started by landowner", "job_id", job.ID, "contractor_id", contractorID)
	return job, nil
}

// startTx sets status and selected contractor in a single guarded update.
// job must be locked by the caller.
func (l *JobLifecycle) startTx(ctx context.Context, tx pgx.Tx, job *models.Job, contractorID uuid.UUID) error {
	if job.Status != models.JobStatusOpen {
		return fmt.Errorf("%w: %s -> in_progress", ErrInvalidTransition, job.Status)
	}
	if job.SelectedContractor != nil {
		return fmt.Errorf("%w: contractor already selected", ErrInvalidTransition)
	}

	next := *job
	next.Status = models.JobStatusInProgress
	next.SelectedContractor = &contractorID
	if err := l.Jobs.Update(ctx, tx, &next); err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	*job = next
	return nil
}

func (l *JobLifecycle) completeTx(ctx context.Context, tx pgx.Tx, actor models.Actor, job *models.Job) error {
	isOwner := actor.ID == job.PostedBy
	isSelected := job.SelectedContractor != nil && *job.SelectedContractor == actor.ID
	if !isOwner && !isSelected {
		return fmt.Errorf("%w: only the landowner or the selected contractor may complete a job", ErrUnauthorized)
	}
	if job.Status != models.JobStatusInProgress {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, job.Status)
	}

	job.Status = models.JobStatusCompleted
	if err := l.Jobs.Update(ctx, tx, job); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	c, err := l.Contractors.GetByIDForUpdate(ctx, tx, *job.SelectedContractor)
	if err != nil {
		return fmt.Errorf("contractor %s: %w", *job.SelectedContractor, err)
	}
	c.CompletedJobs++
	if err := l.Contractors.Update(ctx, tx, c); err != nil {
		return fmt.Errorf("update completed jobs: %w", err)
	}
	return nil
}

func (l *JobLifecycle) cancelTx(ctx context.Context, tx pgx.Tx, actor models.Actor, job *models.Job) error {
	if err := authorizeOwner(actor, job); err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusInProgress {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, job.Status)
	}
	job.Status = models.JobStatusCancelled
	if err := l.Jobs.Update(ctx, tx, job); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	return nil
}

// authorizeOwner allows the job's landowner and admins.
func authorizeOwner(actor models.Actor, job *models.Job) error {
	if actor.IsAdmin() || actor.ID == job.PostedBy {
		return nil
	}
	return fmt.Errorf("%w: caller does not own job %s", ErrUnauthorized, job.ID)
}

func authorizeReader(actor models.Actor, job *models.Job) error {
	if authorizeOwner(actor, job) == nil {
		return nil
	}
	if job.SelectedContractor != nil && *job.SelectedContractor == actor.ID {
		return nil
	}
	if _, ok := job.InShortlist(actor.ID); ok {
		return nil
	}
	return fmt.Errorf("%w: caller has no part in job %s", ErrUnauthorized, job.ID)
}
