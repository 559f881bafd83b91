package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

const (
	DefaultShortlistLimit = 5
	defaultScoreTimeout   = 10 * time.Second
	defaultScoreWorkers   = 4
)

// Shortlist is the persisted ranking of a job. Generated is false when no
// generation has ever run for the job.
type Shortlist struct {
	JobID       uuid.UUID               `json:"job_id"`
	Generated   bool                    `json:"generated"`
	Version     int                     `json:"version"`
	GeneratedAt *time.Time              `json:"generated_at,omitempty"`
	Entries     []models.ShortlistEntry `json:"entries"`
}

// ShortlistEngine scores candidate pools and persists ranked shortlists.
type ShortlistEngine struct {
	Pool          TxBeginner
	Jobs          JobRepo
	Contractors   ContractorRepo
	Notifications NotificationRepo
	Scores        *ScoreAggregator
	Scorer        Scorer
	Timeout       time.Duration
	Workers       int
	DefaultLimit  int
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewShortlistEngine returns a ShortlistEngine with default timeout and limits.
func NewShortlistEngine(pool TxBeginner, jobs JobRepo, contractors ContractorRepo, notifications NotificationRepo, scores *ScoreAggregator, scorer Scorer, logger *slog.Logger) *ShortlistEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShortlistEngine{
		Pool:          pool,
		Jobs:          jobs,
		Contractors:   contractors,
		Notifications: notifications,
		Scores:        scores,
		Scorer:        scorer,
		Timeout:       defaultScoreTimeout,
		Workers:       defaultScoreWorkers,
		DefaultLimit:  DefaultShortlistLimit,
		Logger:        logger,
		Now:           time.Now,
	}
}

// candidate holds a contractor and its score for ranking.
type candidate struct {
	contractor *models.Contractor
	score      *models.Score
}

// Generate scores every contractor whose skills cover the job's work type.
func (e *ShortlistEngine) Generate(ctx context.Context, actor models.Actor, jobID uuid.UUID, limit int) (*Shortlist, error) {
	return e.generate(ctx, actor, jobID, nil, limit)
}

// GenerateFromPool scores the given candidate pool. Unknown ids fail with ErrNotFound.
func (e *ShortlistEngine) GenerateFromPool(ctx context.Context, actor models.Actor, jobID uuid.UUID, pool []uuid.UUID, limit int) (*Shortlist, error) {
	if pool == nil {
		pool = []uuid.UUID{}
	}
	return e.generate(ctx, actor, jobID, pool, limit)
}

func (e *ShortlistEngine) generate(ctx context.Context, actor models.Actor, jobID uuid.UUID, pool []uuid.UUID, limit int) (*Shortlist, error) {
	if limit <= 0 {
		limit = e.DefaultLimit
	}
	job, contractors, err := e.loadCandidates(ctx, actor, jobID, pool)
	if err != nil {
		return nil, err
	}

	// Scoring runs outside any transaction so a slow scorer never holds row locks.
	candidates, err := e.scoreAll(ctx, job, contractors)
	if err != nil {
		e.Logger.Warn("shortlist scoring failed, keeping previous shortlist", "job_id", jobID, "error", err)
		return nil, err
	}
	entries := rankCandidates(candidates, limit)

	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err = e.Jobs.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if job.Status != models.JobStatusOpen {
		return nil, fmt.Errorf("%w: shortlist requires an open job, job is %s", ErrInvalidTransition, job.Status)
	}

	now := e.Now().UTC()
	job.AIShortlistScores = entries
	job.AIShortlistGenerated = true
	job.ShortlistVersion++
	job.ShortlistGeneratedAt = &now
	if err := e.Jobs.Update(ctx, tx, job); err != nil {
		return nil, fmt.Errorf("persist shortlist: %w", err)
	}
	withdrawn, err := e.withdrawDroppedOffers(ctx, tx, job, now)
	if err != nil {
		return nil, err
	}

	// Record appearances in contractor id order so concurrent generations lock
	// contractor rows in the same order.
	ids := make([]uuid.UUID, 0, len(entries))
	overall := make(map[uuid.UUID]float64, len(entries))
	for _, en := range entries {
		ids = append(ids, en.ContractorID)
		overall[en.ContractorID] = en.Overall
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		if _, err := e.Scores.recordTx(ctx, tx, id, jobID, overall[id]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	e.Logger.Info("shortlist generated", "job_id", jobID, "version", job.ShortlistVersion, "candidates", len(contractors), "entries", len(entries), "offers_withdrawn", withdrawn)
	return shortlistOf(job), nil
}

// withdrawDroppedOffers withdraws pending offers to contractors that are not on
// the job's new shortlist. Must run under the job row lock.
func (e *ShortlistEngine) withdrawDroppedOffers(ctx context.Context, tx pgx.Tx, job *models.Job, now time.Time) (int, error) {
	offers, err := e.Notifications.ListOffersByJob(ctx, tx, job.ID)
	if err != nil {
		return 0, fmt.Errorf("list offers: %w", err)
	}
	n := 0
	for _, off := range offers {
		if off.Status != models.OfferStatusPending {
			continue
		}
		if _, ok := job.InShortlist(off.ContractorID); ok {
			continue
		}
		locked, err := e.Notifications.GetByIDForUpdate(ctx, tx, off.ID)
		if err != nil {
			return 0, fmt.Errorf("offer %s: %w", off.ID, err)
		}
		locked.Status = models.OfferStatusWithdrawn
		locked.ActionRequired = false
		locked.RespondedAt = &now
		if err := e.Notifications.Update(ctx, tx, locked); err != nil {
			return 0, fmt.Errorf("withdraw offer: %w", err)
		}
		n++
	}
	return n, nil
}

// loadCandidates authorizes the caller and reads the job and its pool.
func (e *ShortlistEngine) loadCandidates(ctx context.Context, actor models.Actor, jobID uuid.UUID, pool []uuid.UUID) (*models.Job, []*models.Contractor, error) {
	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := e.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if !actor.IsAdmin() && actor.ID != job.PostedBy {
		return nil, nil, fmt.Errorf("%w: only the job's landowner may generate a shortlist", ErrUnauthorized)
	}
	if job.Status != models.JobStatusOpen {
		return nil, nil, fmt.Errorf("%w: shortlist requires an open job, job is %s", ErrInvalidTransition, job.Status)
	}

	var contractors []*models.Contractor
	if pool == nil {
		contractors, err = e.Contractors.ListBySkill(ctx, tx, job.WorkType)
		if err != nil {
			return nil, nil, fmt.Errorf("list candidates: %w", err)
		}
	} else {
		contractors, err = e.Contractors.GetByIDs(ctx, tx, dedupe(pool))
		if err != nil {
			return nil, nil, fmt.Errorf("load candidates: %w", err)
		}
		if len(contractors) != len(dedupe(pool)) {
			return nil, nil, fmt.Errorf("candidate pool: %w", ErrNotFound)
		}
	}
	return job, contractors, nil
}

// scoreAll scores every contractor with bounded concurrency, each call bounded
// by e.Timeout. Any failure or timeout is reported as ErrScoringUnavailable.
func (e *ShortlistEngine) scoreAll(ctx context.Context, job *models.Job, contractors []*models.Contractor) ([]candidate, error) {
	out := make([]candidate, len(contractors))
	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i, c := range contractors {
		g.Go(func() error {
			score, err := e.scoreOne(gctx, job, c)
			if err != nil {
				return fmt.Errorf("contractor %s: %w", c.ID, err)
			}
			out[i] = candidate{contractor: c, score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}
	return out, nil
}

// scoreOne returns when the scorer does or when the per-call timeout expires,
// whichever is first, so a scorer ignoring its context cannot hang generation.
func (e *ShortlistEngine) scoreOne(ctx context.Context, job *models.Job, c *models.Contractor) (*models.Score, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultScoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		score *models.Score
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := e.Scorer.Score(ctx, job, c)
		ch <- result{s, err}
	}()
	select {
	case r := <-ch:
		if r.err == nil && r.score == nil {
			return nil, errors.New("scorer returned no score")
		}
		return r.score, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rankCandidates orders by overall, rating, completed jobs (all descending),
// then contractor id ascending, and keeps the first limit entries.
func rankCandidates(candidates []candidate, limit int) []models.ShortlistEntry {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score.Overall != b.score.Overall {
			return a.score.Overall > b.score.Overall
		}
		if a.contractor.Rating != b.contractor.Rating {
			return a.contractor.Rating > b.contractor.Rating
		}
		if a.contractor.CompletedJobs != b.contractor.CompletedJobs {
			return a.contractor.CompletedJobs > b.contractor.CompletedJobs
		}
		return a.contractor.ID.String() < b.contractor.ID.String()
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	entries := make([]models.ShortlistEntry, 0, len(candidates))
	for i, c := range candidates {
		entries = append(entries, models.ShortlistEntry{
			ContractorID:  c.contractor.ID,
			Rank:          i + 1,
			Overall:       c.score.Overall,
			SkillMatch:    c.score.SkillMatch,
			Reliability:   c.score.Reliability,
			Experience:    c.score.Experience,
			Location:      c.score.Location,
			EstimatedCost: c.score.EstimatedCost,
			Explanation:   explain(c),
		})
	}
	return entries
}

// explain renders the justification text shown next to a shortlist entry.
func explain(c candidate) string {
	var parts []string
	s := c.score
	switch {
	case s.SkillMatch >= 80:
		parts = append(parts, fmt.Sprintf("strong skill match (%.0f%%)", s.SkillMatch))
	case s.SkillMatch >= 50:
		parts = append(parts, fmt.Sprintf("partial skill match (%.0f%%)", s.SkillMatch))
	default:
		parts = append(parts, fmt.Sprintf("weak skill match (%.0f%%)", s.SkillMatch))
	}
	parts = append(parts, fmt.Sprintf("reliability %.0f%%", s.Reliability))
	if c.contractor.CompletedJobs == 1 {
		parts = append(parts, "1 completed job")
	} else {
		parts = append(parts, fmt.Sprintf("%d completed jobs", c.contractor.CompletedJobs))
	}
	if s.Location >= 80 {
		parts = append(parts, "works nearby")
	}
	if s.EstimatedCost != nil {
		parts = append(parts, fmt.Sprintf("estimated cost %.2f", *s.EstimatedCost))
	} else {
		parts = append(parts, "estimated cost not specified")
	}
	text := strings.Join(parts, ", ")
	return strings.ToUpper(text[:1]) + text[1:] + "."
}

// Get returns the persisted shortlist to anyone who may read the job. It never
// triggers generation.
func (e *ShortlistEngine) Get(ctx context.Context, actor models.Actor, jobID uuid.UUID) (*Shortlist, error) {
	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := e.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if err := authorizeReader(actor, job); err != nil {
		return nil, err
	}
	return shortlistOf(job), nil
}

func shortlistOf(job *models.Job) *Shortlist {
	entries := job.AIShortlistScores
	if entries == nil {
		entries = []models.ShortlistEntry{}
	}
	return &Shortlist{
		JobID:       job.ID,
		Generated:   job.AIShortlistGenerated,
		Version:     job.ShortlistVersion,
		GeneratedAt: job.ShortlistGeneratedAt,
		Entries:     entries,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
