package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/delivery"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// ---------------------------------------------------------------------------
// memStore is an in-memory database. Begin takes the store lock for the whole
// transaction, so transactions are serializable, and Rollback restores the
// snapshot taken at Begin.
// ---------------------------------------------------------------------------

type memData struct {
	jobs          map[uuid.UUID]models.Job
	contractors   map[uuid.UUID]models.Contractor
	scores        []models.ScoreEntry
	notifications map[uuid.UUID]models.Notification
	payments      map[uuid.UUID]models.Payment
	feedback      map[uuid.UUID]models.Feedback
	enqueued      []delivery.NotificationArgs
}

func (d memData) clone() memData {
	out := memData{
		jobs:          make(map[uuid.UUID]models.Job, len(d.jobs)),
		contractors:   make(map[uuid.UUID]models.Contractor, len(d.contractors)),
		scores:        append([]models.ScoreEntry(nil), d.scores...),
		notifications: make(map[uuid.UUID]models.Notification, len(d.notifications)),
		payments:      make(map[uuid.UUID]models.Payment, len(d.payments)),
		feedback:      make(map[uuid.UUID]models.Feedback, len(d.feedback)),
		enqueued:      append([]delivery.NotificationArgs(nil), d.enqueued...),
	}
	for k, v := range d.jobs {
		out.jobs[k] = v
	}
	for k, v := range d.contractors {
		out.contractors[k] = v
	}
	for k, v := range d.notifications {
		out.notifications[k] = v
	}
	for k, v := range d.payments {
		out.payments[k] = v
	}
	for k, v := range d.feedback {
		out.feedback[k] = v
	}
	return out
}

type memStore struct {
	mu      sync.Mutex
	data    memData
	nextSeq int64
	begins  int
	failTx  error
}

func newMemStore() *memStore {
	return &memStore{data: memData{}.clone()}
}

func (s *memStore) Begin(context.Context) (pgx.Tx, error) {
	s.mu.Lock()
	if s.failTx != nil {
		err := s.failTx
		s.mu.Unlock()
		return nil, err
	}
	s.begins++
	return &fakeTx{store: s, snapshot: s.data.clone()}, nil
}

// view runs fn under the store lock for assertions outside a transaction.
func (s *memStore) view(fn func(d *memData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

func (s *memStore) job(id uuid.UUID) models.Job {
	var j models.Job
	s.view(func(d *memData) { j = d.jobs[id] })
	return j
}

func (s *memStore) contractor(id uuid.UUID) models.Contractor {
	var c models.Contractor
	s.view(func(d *memData) { c = d.contractors[id] })
	return c
}

func (s *memStore) putJob(j models.Job) {
	s.view(func(d *memData) { d.jobs[j.ID] = j })
}

func (s *memStore) putContractor(c models.Contractor) {
	s.view(func(d *memData) { d.contractors[c.ID] = c })
}

func (s *memStore) enqueue(_ context.Context, _ pgx.Tx, args delivery.NotificationArgs) error {
	// Called inside a transaction, so the store lock is already held.
	s.data.enqueued = append(s.data.enqueued, args)
	return nil
}

// --- fakeTx satisfies pgx.Tx; only Commit/Rollback are meaningful. ---

type fakeTx struct {
	store    *memStore
	snapshot memData
	done     bool
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return nil, errors.New("nested tx not supported") }
func (t *fakeTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
func (t *fakeTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.data = t.snapshot
	t.store.mu.Unlock()
	return nil
}
func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

// ---------------------------------------------------------------------------
// Repositories over memStore. They assume the caller holds a transaction.
// ---------------------------------------------------------------------------

type memJobs struct{ s *memStore }

func cloneJob(j models.Job) *models.Job {
	j.AIShortlistScores = append([]models.ShortlistEntry(nil), j.AIShortlistScores...)
	return &j
}

func (r memJobs) Create(_ context.Context, _ pgx.Tx, j *models.Job) error {
	if _, ok := r.s.data.jobs[j.ID]; ok {
		return models.ErrDuplicate
	}
	j.Version = 1
	j.CreatedAt = time.Now().UTC()
	j.UpdatedAt = j.CreatedAt
	r.s.data.jobs[j.ID] = *cloneJob(*j)
	return nil
}

func (r memJobs) GetByID(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Job, error) {
	j, ok := r.s.data.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneJob(j), nil
}

func (r memJobs) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error) {
	return r.GetByID(ctx, tx, id)
}

func (r memJobs) Update(_ context.Context, _ pgx.Tx, j *models.Job) error {
	cur, ok := r.s.data.jobs[j.ID]
	if !ok || cur.Version != j.Version {
		return models.ErrStaleState
	}
	j.Version++
	j.UpdatedAt = time.Now().UTC()
	r.s.data.jobs[j.ID] = *cloneJob(*j)
	return nil
}

func (r memJobs) ListByPostedBy(_ context.Context, _ pgx.Tx, id uuid.UUID) ([]*models.Job, error) {
	var out []*models.Job
	for _, j := range r.s.data.jobs {
		if j.PostedBy == id {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (r memJobs) ListBySelectedContractor(_ context.Context, _ pgx.Tx, id uuid.UUID) ([]*models.Job, error) {
	var out []*models.Job
	for _, j := range r.s.data.jobs {
		if j.SelectedContractor != nil && *j.SelectedContractor == id {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

type memContractors struct{ s *memStore }

func (r memContractors) GetByID(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Contractor, error) {
	c, ok := r.s.data.contractors[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (r memContractors) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Contractor, error) {
	return r.GetByID(ctx, tx, id)
}

func (r memContractors) GetByIDs(_ context.Context, _ pgx.Tx, ids []uuid.UUID) ([]*models.Contractor, error) {
	var out []*models.Contractor
	for _, id := range ids {
		if c, ok := r.s.data.contractors[id]; ok {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memContractors) ListBySkill(_ context.Context, _ pgx.Tx, workType string) ([]*models.Contractor, error) {
	var out []*models.Contractor
	for _, c := range r.s.data.contractors {
		if c.HasSkill(workType) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r memContractors) Update(_ context.Context, _ pgx.Tx, c *models.Contractor) error {
	cur, ok := r.s.data.contractors[c.ID]
	if !ok || cur.Version != c.Version {
		return models.ErrStaleState
	}
	c.Version++
	r.s.data.contractors[c.ID] = *c
	return nil
}

func (r memContractors) AppendScore(_ context.Context, _ pgx.Tx, e *models.ScoreEntry) error {
	r.s.nextSeq++
	e.Seq = r.s.nextSeq
	r.s.data.scores = append(r.s.data.scores, *e)
	return nil
}

func (r memContractors) ListScores(_ context.Context, _ pgx.Tx, id uuid.UUID) ([]models.ScoreEntry, error) {
	var out []models.ScoreEntry
	for _, e := range r.s.data.scores {
		if e.ContractorID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(_ context.Context, _ pgx.Tx, n *models.Notification) error {
	n.Version = 1
	r.s.data.notifications[n.ID] = *n
	return nil
}

func (r memNotifications) GetByID(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Notification, error) {
	n, ok := r.s.data.notifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &n, nil
}

func (r memNotifications) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Notification, error) {
	return r.GetByID(ctx, tx, id)
}

func (r memNotifications) Update(_ context.Context, _ pgx.Tx, n *models.Notification) error {
	cur, ok := r.s.data.notifications[n.ID]
	if !ok || cur.Version != n.Version {
		return models.ErrStaleState
	}
	n.Version++
	r.s.data.notifications[n.ID] = *n
	return nil
}

func (r memNotifications) sorted(keep func(models.Notification) bool) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.s.data.notifications {
		if keep(n) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memNotifications) ListOffersByJob(_ context.Context, _ pgx.Tx, jobID uuid.UUID) ([]*models.Notification, error) {
	return r.sorted(func(n models.Notification) bool { return n.JobID == jobID && n.IsOffer() }), nil
}

func (r memNotifications) ListByUser(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]*models.Notification, error) {
	return r.sorted(func(n models.Notification) bool { return n.UserID == userID }), nil
}

func (r memNotifications) ListActionable(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]*models.Notification, error) {
	return r.sorted(func(n models.Notification) bool {
		if n.UserID != userID || !n.ActionRequired || n.Status != models.OfferStatusPending {
			return false
		}
		j, ok := r.s.data.jobs[n.JobID]
		return ok && j.Status == models.JobStatusOpen
	}), nil
}

func (r memNotifications) CountUnread(_ context.Context, _ pgx.Tx, userID uuid.UUID) (int, error) {
	return len(r.sorted(func(n models.Notification) bool { return n.UserID == userID && !n.IsRead })), nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(_ context.Context, _ pgx.Tx, p *models.Payment) error {
	p.Version = 1
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Payment, error) {
	p, ok := r.s.data.payments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Payment, error) {
	return r.GetByID(ctx, tx, id)
}

func (r memPayments) Update(_ context.Context, _ pgx.Tx, p *models.Payment) error {
	cur, ok := r.s.data.payments[p.ID]
	if !ok || cur.Version != p.Version {
		return models.ErrStaleState
	}
	p.Version++
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r memPayments) ListByJob(_ context.Context, _ pgx.Tx, jobID uuid.UUID) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range r.s.data.payments {
		if p.JobID == jobID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

type memFeedback struct{ s *memStore }

func (r memFeedback) Create(_ context.Context, _ pgx.Tx, f *models.Feedback) error {
	for _, cur := range r.s.data.feedback {
		if cur.JobID == f.JobID && cur.ContractorID == f.ContractorID {
			return models.ErrDuplicate
		}
	}
	r.s.data.feedback[f.ID] = *f
	return nil
}

func (r memFeedback) GetByJobAndContractor(_ context.Context, _ pgx.Tx, jobID, contractorID uuid.UUID) (*models.Feedback, error) {
	for _, f := range r.s.data.feedback {
		if f.JobID == jobID && f.ContractorID == contractorID {
			return &f, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r memFeedback) ListByContractor(_ context.Context, _ pgx.Tx, contractorID uuid.UUID) ([]*models.Feedback, error) {
	var out []*models.Feedback
	for _, f := range r.s.data.feedback {
		if f.ContractorID == contractorID {
			f := f
			out = append(out, &f)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Scorers
// ---------------------------------------------------------------------------

// fixedScorer returns a preset overall per contractor.
type fixedScorer struct {
	mu      sync.Mutex
	overall map[uuid.UUID]float64
	err     error
	calls   int
}

func (f *fixedScorer) Score(_ context.Context, _ *models.Job, c *models.Contractor) (*models.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	o := f.overall[c.ID]
	return &models.Score{SkillMatch: o, Reliability: o, Experience: o, Location: o, Overall: o}, nil
}

// slowScorer delegates to next after a fixed delay, honouring ctx.
type slowScorer struct {
	delay time.Duration
	next  Scorer
}

func (s slowScorer) Score(ctx context.Context, job *models.Job, c *models.Contractor) (*models.Score, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.next.Score(ctx, job, c)
}

// blockingScorer never answers.
type blockingScorer struct{}

func (blockingScorer) Score(ctx context.Context, _ *models.Job, _ *models.Contractor) (*models.Score, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	store     *memStore
	scores    *ScoreAggregator
	engine    *ShortlistEngine
	lifecycle *JobLifecycle
	offers    *OfferProtocol
	escrow    *PaymentEscrowSequencer
	scorer    *fixedScorer

	landowner models.Actor
	admin     models.Actor
}

func newFixture() *fixture {
	s := newMemStore()
	jobs := memJobs{s}
	contractors := memContractors{s}
	notes := memNotifications{s}
	scorer := &fixedScorer{overall: map[uuid.UUID]float64{}}

	scores := NewScoreAggregator(s, contractors)
	lifecycle := NewJobLifecycle(s, jobs, contractors, nil)
	return &fixture{
		store:     s,
		scores:    scores,
		engine:    NewShortlistEngine(s, jobs, contractors, notes, scores, scorer, nil),
		lifecycle: lifecycle,
		offers:    NewOfferProtocol(s, jobs, notes, lifecycle, s.enqueue, nil),
		escrow:    NewPaymentEscrowSequencer(s, jobs, contractors, memPayments{s}, memFeedback{s}, notes, s.enqueue, nil),
		scorer:    scorer,
		landowner: models.Actor{ID: uuid.New(), Role: models.RoleLandowner},
		admin:     models.Actor{ID: uuid.New(), Role: models.RoleAdmin},
	}
}

// addContractor registers a contractor with the given skill and preset overall score.
func (f *fixture) addContractor(skill string, overall float64) models.Actor {
	id := uuid.New()
	f.store.putContractor(models.Contractor{
		ID:       id,
		Name:     "contractor " + id.String()[:8],
		Location: "Mysuru",
		Skills:   []string{skill},
		Version:  1,
	})
	f.scorer.mu.Lock()
	f.scorer.overall[id] = overall
	f.scorer.mu.Unlock()
	return models.Actor{ID: id, Role: models.RoleContractor}
}

func (f *fixture) openJob(workType string) *models.Job {
	job, err := f.lifecycle.Create(context.Background(), f.landowner, JobDraft{
		WorkType: workType,
		LandSize: 2.5,
		Location: "Mysuru",
	})
	if err != nil {
		panic(err)
	}
	return job
}
