package compliance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/internal/testutil"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memOrgRepo struct {
	orgs map[string]obligation.Organization
}

func newMemOrgRepo(ids ...string) *memOrgRepo {
	r := &memOrgRepo{orgs: map[string]obligation.Organization{}}
	for _, id := range ids {
		r.orgs[id] = obligation.Organization{ID: id, Name: id, Active: true}
	}
	return r
}

func (r *memOrgRepo) ListActive(context.Context) ([]obligation.Organization, error) {
	var out []obligation.Organization
	for _, o := range r.orgs {
		if o.Active {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memOrgRepo) Get(_ context.Context, id string) (*obligation.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeOrganizationNotFound, "organization not found")
	}
	return &o, nil
}

type memEntityRepo struct {
	mu       sync.Mutex
	entities map[string][]obligation.TrackedEntity
	computed map[string][]obligation.Computed
	failFor  map[string]error
	loads    int
}

func newMemEntityRepo() *memEntityRepo {
	return &memEntityRepo{
		entities: map[string][]obligation.TrackedEntity{},
		computed: map[string][]obligation.Computed{},
		failFor:  map[string]error{},
	}
}

func (r *memEntityRepo) put(es ...obligation.TrackedEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range es {
		list := r.entities[e.OrganizationID]
		replaced := false
		for i := range list {
			if list[i].Ref() == e.Ref() {
				list[i] = e
				replaced = true
			}
		}
		if !replaced {
			list = append(list, e)
		}
		r.entities[e.OrganizationID] = list
	}
}

func (r *memEntityRepo) ListByOrganization(_ context.Context, organizationID string) ([]obligation.TrackedEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if err := r.failFor[organizationID]; err != nil {
		return nil, err
	}
	return append([]obligation.TrackedEntity(nil), r.entities[organizationID]...), nil
}

func (r *memEntityRepo) SaveComputed(_ context.Context, organizationID string, computed []obligation.Computed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computed[organizationID] = computed
	return nil
}

type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[string]*alert.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: map[string]*alert.Alert{}}
}

func (r *memAlertRepo) sorted(pred func(*alert.Alert) bool) []*alert.Alert {
	var out []*alert.Alert
	for _, a := range r.alerts {
		if pred(a) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memAlertRepo) all() []*alert.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*alert.Alert) bool { return true })
}

func (r *memAlertRepo) ListLive(_ context.Context, organizationID string) ([]*alert.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *alert.Alert) bool { return a.OrganizationID == organizationID && a.IsLive() }), nil
}

func (r *memAlertRepo) LatestDismissed(_ context.Context, organizationID string) (map[obligation.EntityRef]obligation.Tier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[obligation.EntityRef]obligation.Tier{}
	latest := map[obligation.EntityRef]time.Time{}
	for _, a := range r.alerts {
		if a.OrganizationID != organizationID || a.Status != alert.StatusDismissed || a.ClosedAt == nil {
			continue
		}
		if t, ok := latest[a.Ref]; !ok || a.ClosedAt.After(t) {
			latest[a.Ref] = *a.ClosedAt
			out[a.Ref] = a.Severity
		}
	}
	return out, nil
}

func (r *memAlertRepo) List(_ context.Context, organizationID string, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(a *alert.Alert) bool {
		if a.OrganizationID != organizationID {
			return false
		}
		if len(f.Statuses) == 0 {
			return true
		}
		for _, s := range f.Statuses {
			if a.Status == s {
				return true
			}
		}
		return false
	})
	return out, int64(len(out)), nil
}

func (r *memAlertRepo) Get(_ context.Context, organizationID, id string) (*alert.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.OrganizationID != organizationID {
		return nil, errors.New(errors.ErrCodeAlertNotFound, "alert not found")
	}
	return a.Clone(), nil
}

func (r *memAlertRepo) Create(_ context.Context, a *alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.alerts {
		if existing.OrganizationID == a.OrganizationID && existing.Ref == a.Ref && existing.IsLive() {
			return errors.New(errors.ErrCodeConflict, "entity already has a live alert")
		}
	}
	r.alerts[a.ID] = a.Clone()
	return nil
}

func (r *memAlertRepo) Update(_ context.Context, a *alert.Alert, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.alerts[a.ID]
	if !ok || stored.Version != expectedVersion {
		return errors.New(errors.ErrCodeAlertVersionStale, "alert was modified concurrently")
	}
	a.Version = expectedVersion + 1
	r.alerts[a.ID] = a.Clone()
	return nil
}

func (r *memAlertRepo) MarkNotified(_ context.Context, id string, severity obligation.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return errors.New(errors.ErrCodeAlertNotFound, "alert not found")
	}
	if a.NotifiedSeverity == nil || *a.NotifiedSeverity < severity {
		s := severity
		a.NotifiedSeverity = &s
	}
	return nil
}

type memJobRepo struct {
	mu    sync.Mutex
	jobs  map[string]*notification.Job
	dedup map[string]string
	order []string
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*notification.Job{}, dedup: map[string]string{}}
}

func cloneJob(j *notification.Job) *notification.Job {
	c := *j
	return &c
}

func (r *memJobRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *memJobRepo) Enqueue(_ context.Context, j *notification.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.dedup[j.DedupKey]; dup {
		return errors.New(errors.ErrCodeDuplicateNotification, "notification already enqueued")
	}
	r.dedup[j.DedupKey] = j.ID
	r.jobs[j.ID] = cloneJob(j)
	r.order = append(r.order, j.ID)
	return nil
}

func (r *memJobRepo) Get(_ context.Context, id string) (*notification.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, errors.NotFound("notification job not found")
	}
	return cloneJob(j), nil
}

func (r *memJobRepo) List(_ context.Context, organizationID string, f notification.JobFilter) ([]*notification.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Job
	for _, id := range r.order {
		j := r.jobs[id]
		if j.OrganizationID != organizationID || (f.AlertID != "" && j.AlertID != f.AlertID) {
			continue
		}
		out = append(out, cloneJob(j))
	}
	return out, int64(len(out)), nil
}

func (r *memJobRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*notification.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Job
	for _, id := range r.order {
		if j := r.jobs[id]; j.IsDue(now) && len(out) < limit {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (r *memJobRepo) Claim(_ context.Context, j *notification.Job, now time.Time, lease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[j.ID]
	if !ok || stored.Attempt != j.Attempt || !stored.IsDue(now) {
		return false, nil
	}
	stored.Attempt++
	stored.NotBefore = now.Add(lease)
	stored.UpdatedAt = now
	j.Attempt, j.NotBefore, j.UpdatedAt = stored.Attempt, stored.NotBefore, stored.UpdatedAt
	return true, nil
}

func (r *memJobRepo) UpdateStatus(_ context.Context, j *notification.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[j.ID]
	if !ok || stored.Status != notification.StatusPending || stored.Attempt != j.Attempt {
		return errors.New(errors.ErrCodeJobSuperseded, "notification job was changed by another deliverer")
	}
	r.jobs[j.ID] = cloneJob(j)
	return nil
}

func (r *memJobRepo) byStatus(st notification.Status) []*notification.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Job
	for _, id := range r.order {
		if r.jobs[id].Status == st {
			out = append(out, cloneJob(r.jobs[id]))
		}
	}
	return out
}

type memMemberRepo struct {
	members map[string][]notification.Member
}

func (r *memMemberRepo) ListActive(_ context.Context, organizationID string) ([]notification.Member, error) {
	return r.members[organizationID], nil
}

// ---------------------------------------------------------------------------
// Collaborator fakes
// ---------------------------------------------------------------------------

type fakeSender struct {
	mu    sync.Mutex
	sent  []*notification.Job
	errFn func(*notification.Job) error
}

func (s *fakeSender) Send(_ context.Context, j *notification.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errFn != nil {
		if err := s.errFn(j); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, cloneJob(j))
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type publishedEvent struct {
	Topic, Type, OrganizationID string
	Payload                     interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, eventType, organizationID string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic, eventType, organizationID, payload})
	return nil
}

func (p *recordingPublisher) onTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []*notification.Job
}

func (q *recordingQueue) Submit(_ context.Context, j *notification.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, cloneJob(j))
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

const testOrg = "org-1"

var baseNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	now      time.Time
	ids      int
	orgs     *memOrgRepo
	entities *memEntityRepo
	alerts   *memAlertRepo
	jobs     *memJobRepo
	members  *memMemberRepo
	sender   *fakeSender
	events   *recordingPublisher
	logger   *testutil.MockLogger
	policy   *PolicySource

	aggregator *Aggregator
	dispatcher *Dispatcher
	deliverer  *Deliverer
	sweep      *SweepService
}

type fixtureOption func(*SweepOptions)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		now:      baseNow,
		orgs:     newMemOrgRepo(testOrg),
		entities: newMemEntityRepo(),
		alerts:   newMemAlertRepo(),
		jobs:     newMemJobRepo(),
		members: &memMemberRepo{members: map[string][]notification.Member{
			testOrg: {{ID: "member-1", OrganizationID: testOrg, Email: "hse@example.com", Active: true}},
		}},
		sender: &fakeSender{},
		events: &recordingPublisher{},
		logger: testutil.NewMockLogger(),
		policy: NewPolicySource(obligation.DefaultPolicy()),
	}
	metrics := prometheus.NewNopMetrics()
	clock := func() time.Time { return f.now }
	newID := func() string {
		f.ids++
		return fmt.Sprintf("id-%03d", f.ids)
	}

	f.aggregator = NewAggregator(f.entities, f.policy, metrics, f.logger)
	f.dispatcher = NewDispatcher(f.members, f.jobs, f.logger)
	f.dispatcher.clock, f.dispatcher.newID = clock, newID
	f.deliverer = NewDeliverer(f.jobs, f.alerts, f.sender, f.events, metrics,
		RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Minute, MaxBackoff: 10 * time.Minute}, f.logger)
	f.deliverer.clock = clock

	so := SweepOptions{Concurrency: 2, Timeout: time.Minute}
	for _, o := range opts {
		o(&so)
	}
	f.sweep = NewSweepService(SweepDeps{
		Organizations: f.orgs,
		Alerts:        f.alerts,
		Aggregator:    f.aggregator,
		Dispatcher:    f.dispatcher,
		Deliverer:     f.deliverer,
		Events:        f.events,
		Metrics:       metrics,
		Logger:        f.logger,
	}, so)
	f.sweep.clock, f.sweep.newID = clock, newID
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func daysFrom(t time.Time, days int) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}

func medical(id string, due *time.Time) obligation.TrackedEntity {
	return obligation.TrackedEntity{
		ID:             id,
		OrganizationID: testOrg,
		Kind:           obligation.KindMedicalExamination,
		Title:          "Periodic exam " + id,
		OwnerID:        "emp-" + id,
		OwnerActive:    true,
		DueDate:        due,
	}
}

func intPtr(n int) *int { return &n }

//Personal.AI order the ending
