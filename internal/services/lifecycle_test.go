package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

func TestActionRequired(t *testing.T) {
	tests := []struct {
		name string
		job  models.Job
		want string
	}{
		{"open", models.Job{Status: models.JobStatusOpen}, ActionNone},
		{"in progress", models.Job{Status: models.JobStatusInProgress}, ActionNone},
		{"completed unpaid", models.Job{Status: models.JobStatusCompleted}, ActionPaymentPending},
		{"completed paid", models.Job{Status: models.JobStatusCompleted, IsPaid: true}, ActionFeedbackPending},
		{"completed settled", models.Job{Status: models.JobStatusCompleted, IsPaid: true, IsFeedbackGiven: true}, ActionNone},
		{"cancelled", models.Job{Status: models.JobStatusCancelled, IsPaid: false}, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActionRequired(&tt.job); got != tt.want {
				t.Errorf("ActionRequired = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateJob(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	job := f.openJob(" Clearing ")
	if job.Status != models.JobStatusOpen || job.WorkType != "clearing" || job.PostedBy != f.landowner.ID {
		t.Fatalf("created job = %+v", job)
	}
	if job.AIShortlistGenerated || job.SelectedContractor != nil {
		t.Errorf("new job carries selection state: %+v", job)
	}

	contractor := models.Actor{ID: uuid.New(), Role: models.RoleContractor}
	if _, err := f.lifecycle.Create(ctx, contractor, JobDraft{WorkType: "clearing", LandSize: 1, Location: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("contractor create: got %v, want ErrUnauthorized", err)
	}
	if _, err := f.lifecycle.Create(ctx, f.landowner, JobDraft{WorkType: "clearing", LandSize: 0, Location: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero land size: got %v, want ErrInvalidInput", err)
	}
	start := time.Now()
	end := start.Add(-time.Hour)
	if _, err := f.lifecycle.Create(ctx, f.landowner, JobDraft{WorkType: "clearing", LandSize: 1, Location: "x", StartDate: &start, EndDate: &end}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("end before start: got %v, want ErrInvalidInput", err)
	}
}

func TestTransition_InProgressNeedsSelection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.openJob("clearing")

	if _, err := f.lifecycle.Transition(ctx, f.landowner, job.ID, models.JobStatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	stored := f.store.job(job.ID)
	if stored.Status != models.JobStatusOpen || stored.SelectedContractor != nil {
		t.Errorf("job changed: %+v", stored)
	}
}

func TestStartWithContractor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.openJob("clearing")
	c := f.addContractor("clearing", 80)
	outsider := f.addContractor("ploughing", 80)

	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("before shortlist: got %v, want ErrInvalidTransition", err)
	}
	if _, err := f.engine.Generate(ctx, f.landowner, job.ID, 5); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, outsider.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("outsider: got %v, want ErrInvalidTransition", err)
	}
	stranger := models.Actor{ID: uuid.New(), Role: models.RoleLandowner}
	if _, err := f.lifecycle.StartWithContractor(ctx, stranger, job.ID, c.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger: got %v, want ErrUnauthorized", err)
	}

	got, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, c.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.Status != models.JobStatusInProgress || got.SelectedContractor == nil || *got.SelectedContractor != c.ID {
		t.Errorf("started job = %+v", got)
	}
}

func TestTransition_CompleteAndCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.openJob("clearing")
	c := f.addContractor("clearing", 80)
	if _, err := f.engine.Generate(ctx, f.landowner, job.ID, 5); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := f.lifecycle.Transition(ctx, f.landowner, job.ID, models.JobStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete open job: got %v, want ErrInvalidTransition", err)
	}
	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, c.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	other := models.Actor{ID: uuid.New(), Role: models.RoleContractor}
	if _, err := f.lifecycle.Transition(ctx, other, job.ID, models.JobStatusCompleted); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("other contractor: got %v, want ErrUnauthorized", err)
	}

	done, err := f.lifecycle.Transition(ctx, c, job.ID, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.JobStatusCompleted || done.IsPaid || done.IsFeedbackGiven {
		t.Errorf("completed job = %+v", done)
	}
	if got := f.store.contractor(c.ID).CompletedJobs; got != 1 {
		t.Errorf("completed_jobs = %d, want 1", got)
	}
	if ActionRequired(done) != ActionPaymentPending {
		t.Errorf("action required = %q", ActionRequired(done))
	}

	// Terminal: every transition is rejected, authorization first.
	for _, status := range []string{models.JobStatusOpen, models.JobStatusInProgress, models.JobStatusCompleted, models.JobStatusCancelled} {
		if _, err := f.lifecycle.Transition(ctx, f.landowner, job.ID, status); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("completed -> %s: got %v, want ErrInvalidTransition", status, err)
		}
	}
	stranger := models.Actor{ID: uuid.New(), Role: models.RoleLandowner}
	if _, err := f.lifecycle.Transition(ctx, stranger, job.ID, models.JobStatusCancelled); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger cancel: got %v, want ErrUnauthorized", err)
	}
}

func TestTransition_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	open := f.openJob("clearing")
	got, err := f.lifecycle.Transition(ctx, f.admin, open.ID, models.JobStatusCancelled)
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if got.Status != models.JobStatusCancelled {
		t.Errorf("status = %s", got.Status)
	}
	if _, err := f.lifecycle.Transition(ctx, f.landowner, open.ID, models.JobStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel twice: got %v, want ErrInvalidTransition", err)
	}
	if _, err := f.lifecycle.Transition(ctx, f.landowner, open.ID, "archived"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown status: got %v, want ErrInvalidInput", err)
	}
	if _, err := f.lifecycle.Transition(ctx, f.landowner, uuid.New(), models.JobStatusCancelled); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown job: got %v, want ErrNotFound", err)
	}
}

func TestListForActor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.openJob("clearing")
	f.openJob("planting")
	c := f.addContractor("clearing", 80)
	if _, err := f.engine.Generate(ctx, f.landowner, job.ID, 5); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, c.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	mine, err := f.lifecycle.ListForActor(ctx, f.landowner)
	if err != nil || len(mine) != 2 {
		t.Fatalf("landowner jobs = %d, %v", len(mine), err)
	}
	assigned, err := f.lifecycle.ListForActor(ctx, c)
	if err != nil || len(assigned) != 1 || assigned[0].ID != job.ID {
		t.Fatalf("contractor jobs = %+v, %v", assigned, err)
	}
	none, err := f.lifecycle.ListForActor(ctx, models.Actor{ID: uuid.New(), Role: models.RoleContractor})
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("empty list = %v, %v", none, err)
	}
}

func TestGet_ScopedToJobParties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job, cs := f.shortlisted(t, 2)
	outsider := f.addContractor("ploughing", 95)
	stranger := models.Actor{ID: uuid.New(), Role: models.RoleLandowner}

	for name, actor := range map[string]models.Actor{
		"landowner":   f.landowner,
		"admin":       f.admin,
		"shortlisted": cs[1],
	} {
		if _, err := f.lifecycle.Get(ctx, actor, job.ID); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	for name, actor := range map[string]models.Actor{
		"outsider": outsider,
		"stranger": stranger,
	} {
		if _, err := f.lifecycle.Get(ctx, actor, job.ID); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: got %v, want ErrUnauthorized", name, err)
		}
		if _, err := f.engine.Get(ctx, actor, job.ID); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s shortlist: got %v, want ErrUnauthorized", name, err)
		}
	}

	// The selected contractor keeps access after the shortlist is regenerated without them.
	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, cs[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	j := f.store.job(job.ID)
	j.AIShortlistScores = nil
	f.store.putJob(j)
	if _, err := f.lifecycle.Get(ctx, cs[0], job.ID); err != nil {
		t.Errorf("selected contractor: %v", err)
	}
	if _, err := f.lifecycle.Get(ctx, f.landowner, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown job: got %v, want ErrNotFound", err)
	}
}
