package compliance

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/domain/score"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// Summary is the outcome of one organization's sweep.
type Summary struct {
	OrganizationID    string        `json:"organization_id"`
	Checked           int           `json:"checked"`
	Unscheduled       int           `json:"unscheduled"`
	AlertsCreated     int           `json:"alerts_created"`
	AlertsEscalated   int           `json:"alerts_escalated"`
	AlertsDowngraded  int           `json:"alerts_downgraded"`
	AlertsResolved    int           `json:"alerts_resolved"`
	NotificationsSent int           `json:"notifications_sent"`
	Errors            int           `json:"errors"`
	Score             *int          `json:"score,omitempty"`
	Duration          time.Duration `json:"duration"`
	// Error is set when the sweep did not complete.
	Error string `json:"error,omitempty"`
}

// AlertTransitionEvent is published for every applied transition.
type AlertTransitionEvent struct {
	Kind     alert.TransitionKind `json:"kind"`
	Previous obligation.Tier      `json:"previous"`
	Alert    *alert.Alert         `json:"alert"`
}

// SweepOptions tunes sweep execution.
type SweepOptions struct {
	Concurrency int
	Timeout     time.Duration
	// Location decides "today" for organizations without a timezone.
	Location        *time.Location
	NotifyOnResolve bool
	ScoreTTL        time.Duration
}

// SweepDeps are the collaborators of a SweepService. Queue, Cache and
// Events are optional.
type SweepDeps struct {
	Organizations obligation.OrganizationRepository
	Alerts        alert.Repository
	Aggregator    *Aggregator
	Dispatcher    *Dispatcher
	Deliverer     *Deliverer
	Queue         JobQueue
	Guard         Guard
	Cache         ScoreCache
	Events        EventPublisher
	Metrics       *prometheus.ComplianceMetrics
	Logger        logging.Logger
}

// SweepService runs the aggregate, score, reconcile and dispatch pipeline.
type SweepService struct {
	SweepDeps
	opts  SweepOptions
	clock Clock
	newID IDGenerator
}

func NewSweepService(deps SweepDeps, opts SweepOptions) *SweepService {
	if deps.Guard == nil {
		deps.Guard = NewLocalGuard()
	}
	if deps.Events == nil {
		deps.Events = NewNopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewNopMetrics()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &SweepService{SweepDeps: deps, opts: opts, clock: defaultClock, newID: defaultID}
}

func scoreKey(organizationID string) string { return "score:" + organizationID }

// SweepOrganization runs one sweep of organizationID. Unless force is set,
// a sweep already in flight for the organization makes this one fail with a
// SweepOverlapError. Entity-level failures are counted in Errors and never
// abort the sweep.
func (s *SweepService) SweepOrganization(ctx context.Context, organizationID string, force bool) (*Summary, error) {
	start := s.clock()
	sum := &Summary{OrganizationID: organizationID}
	log := s.Logger.With(logging.OrgID(organizationID))

	org, err := s.Organizations.Get(ctx, organizationID)
	if err != nil {
		return s.fail(sum, start, err)
	}

	if !force {
		release, ok, err := s.Guard.TryAcquire(ctx, "sweep:"+organizationID)
		if err != nil {
			return s.fail(sum, start, errors.Wrap(err, errors.ErrCodeCacheError, "sweep guard unavailable"))
		}
		if !ok {
			return s.overlap(sum, start, log)
		}
		defer release()
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	err = s.run(ctx, org, sum, log)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		err = errors.Wrap(err, errors.ErrCodeSweepTimeout, "sweep exceeded its time budget").WithDetail(organizationID)
	}
	if err != nil {
		return s.fail(sum, start, err)
	}

	sum.Duration = s.clock().Sub(start)
	s.Metrics.RecordSweep("success", sum.Duration)
	log.Info("sweep completed",
		logging.Int("checked", sum.Checked),
		logging.Int("alerts_created", sum.AlertsCreated),
		logging.Int("alerts_escalated", sum.AlertsEscalated),
		logging.Int("alerts_resolved", sum.AlertsResolved),
		logging.Int("notifications_sent", sum.NotificationsSent),
		logging.Int("errors", sum.Errors),
		logging.Duration("duration", sum.Duration))
	return sum, nil
}

func (s *SweepService) fail(sum *Summary, start time.Time, err error) (*Summary, error) {
	sum.Errors++
	sum.Error = err.Error()
	sum.Duration = s.clock().Sub(start)
	s.Metrics.RecordSweep("failure", sum.Duration)
	s.Logger.Error("sweep failed", logging.OrgID(sum.OrganizationID), logging.Stage("sweep"), logging.Err(err))
	return sum, err
}

// overlap reports a sweep rejected because another one holds the guard. It
// counts as an error in the summary but is logged as a warning.
func (s *SweepService) overlap(sum *Summary, start time.Time, log logging.Logger) (*Summary, error) {
	err := errors.NewSweepOverlapError(sum.OrganizationID)
	sum.Errors++
	sum.Error = err.Error()
	sum.Duration = s.clock().Sub(start)
	s.Metrics.RecordSweep("overlap", sum.Duration)
	log.Warn("sweep skipped, another sweep is in flight", logging.Stage("sweep"), logging.Err(err))
	return sum, err
}

// asOf is now as seen from the organization's timezone.
func (s *SweepService) asOf(org *obligation.Organization) time.Time {
	return localNow(s.clock(), org, s.opts.Location)
}

func (s *SweepService) run(ctx context.Context, org *obligation.Organization, sum *Summary, log logging.Logger) error {
	now := s.clock()
	res, err := s.Aggregator.Aggregate(ctx, org.ID, s.asOf(org))
	if err != nil {
		return err
	}
	sum.Checked = len(res.Snapshots) + len(res.Failures)
	sum.Unscheduled = len(res.Unscheduled())
	sum.Errors += len(res.Failures)

	if err := s.Aggregator.WriteBack(ctx, res); err != nil {
		sum.Errors++
		log.Error("failed to write back computed due dates", logging.Stage("writeback"), logging.Err(err))
	}

	sc := score.NewScorer(res.Policy).Score(org.ID, res.Snapshots, now)
	s.recordScore(ctx, sc, log)
	if sc.Scored {
		total := sc.Total
		sum.Score = &total
	}

	live, err := s.Alerts.ListLive(ctx, org.ID)
	if err != nil {
		return err
	}
	dismissed, err := s.Alerts.LatestDismissed(ctx, org.ID)
	if err != nil {
		return err
	}

	transitions := alert.Reconcile(alert.ReconcileInput{
		OrganizationID: org.ID,
		Snapshots:      res.Snapshots,
		Held:           res.Held(),
		Current:        live,
		Dismissed:      dismissed,
		Now:            now,
		NewID:          s.newID,
	})

	var jobs []*notification.Job
	for _, t := range transitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.apply(ctx, t, sum, log) {
			continue
		}
		if t.Kind == alert.TransitionResolve && s.opts.NotifyOnResolve && t.Alert.NotifiedSeverity != nil {
			js, err := s.Dispatcher.Dispatch(ctx, t.Alert, notification.TriggerResolved)
			if err != nil {
				sum.Errors++
				log.Error("resolution dispatch failed", logging.EntityRef(t.Alert.Ref.String()), logging.Stage("dispatch"), logging.Err(err))
			}
			jobs = append(jobs, js...)
		}
	}

	pending, err := s.dispatchPending(ctx, org.ID, sum, log)
	jobs = append(jobs, pending...)
	if err != nil {
		return err
	}

	sum.NotificationsSent += s.handOff(ctx, jobs, log)
	return nil
}

// apply persists one transition. Failures are logged and counted.
func (s *SweepService) apply(ctx context.Context, t alert.Transition, sum *Summary, log logging.Logger) bool {
	var err error
	if t.Kind == alert.TransitionCreate {
		err = s.Alerts.Create(ctx, t.Alert)
	} else {
		err = s.Alerts.Update(ctx, t.Alert, t.ExpectedVersion)
	}
	if err != nil {
		sum.Errors++
		log.Error("failed to apply alert transition",
			logging.EntityRef(t.Alert.Ref.String()),
			logging.Stage("reconcile"),
			logging.String("transition", string(t.Kind)),
			logging.Err(err))
		return false
	}

	switch t.Kind {
	case alert.TransitionCreate:
		sum.AlertsCreated++
	case alert.TransitionEscalate:
		sum.AlertsEscalated++
	case alert.TransitionDowngrade:
		sum.AlertsDowngraded++
	case alert.TransitionResolve:
		sum.AlertsResolved++
	}
	s.Metrics.RecordTransition(string(t.Kind))

	ev := AlertTransitionEvent{Kind: t.Kind, Previous: t.Previous, Alert: t.Alert}
	if err := s.Events.PublishEvent(ctx, kafka.TopicAlertTransitioned, kafka.EventAlertTransitioned, t.Alert.OrganizationID, ev); err != nil {
		log.Warn("failed to publish alert transition", logging.AlertID(t.Alert.ID), logging.Err(err))
	}
	return true
}

// dispatchPending fans out every live alert whose current severity has not
// been notified yet. Running it after reconciliation, rather than per
// transition, lets a sweep pick up alerts a previously aborted sweep left
// undispatched.
func (s *SweepService) dispatchPending(ctx context.Context, organizationID string, sum *Summary, log logging.Logger) ([]*notification.Job, error) {
	live, err := s.Alerts.ListLive(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	var out []*notification.Job
	for _, a := range live {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !a.NeedsNotification() {
			continue
		}
		trigger := notification.TriggerEscalated
		if a.NotifiedSeverity == nil {
			trigger = notification.TriggerCreated
		}
		jobs, err := s.Dispatcher.Dispatch(ctx, a, trigger)
		out = append(out, jobs...)
		if err != nil {
			sum.Errors++
			log.Error("dispatch failed", logging.AlertID(a.ID), logging.EntityRef(a.Ref.String()), logging.Stage("dispatch"), logging.Err(err))
			continue
		}
		if err := s.Alerts.MarkNotified(ctx, a.ID, a.Severity); err != nil {
			sum.Errors++
			log.Error("failed to mark alert notified", logging.AlertID(a.ID), logging.Stage("dispatch"), logging.Err(err))
		}
	}
	return out, nil
}

// handOff delivers due jobs inline, or submits them to the queue, and returns
// how many were sent or handed off. Deferred jobs wait for the due-job poller.
func (s *SweepService) handOff(ctx context.Context, jobs []*notification.Job, log logging.Logger) int {
	now := s.clock()
	var due []*notification.Job
	for _, j := range jobs {
		if j.IsDue(now) {
			due = append(due, j)
		}
	}
	SortForDelivery(due)

	if s.Queue == nil {
		return s.Deliverer.DeliverBatch(ctx, due).Sent
	}
	n := 0
	for _, j := range due {
		if err := s.Queue.Submit(ctx, j); err != nil {
			log.Warn("failed to queue notification; poller will retry", logging.String("job_id", j.ID), logging.Err(err))
			continue
		}
		n++
	}
	return n
}

func (s *SweepService) recordScore(ctx context.Context, sc score.ComplianceScore, log logging.Logger) {
	if sc.Scored {
		s.Metrics.SetScore(sc.OrganizationID, sc.Total)
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, scoreKey(sc.OrganizationID), sc, s.opts.ScoreTTL); err != nil {
			log.Warn("failed to cache score", logging.Err(err))
		}
	}
	if err := s.Events.PublishEvent(ctx, kafka.TopicScoreComputed, kafka.EventScoreComputed, sc.OrganizationID, sc); err != nil {
		log.Warn("failed to publish score", logging.Err(err))
	}
}

// SweepAll sweeps every active organization with bounded parallelism. One
// organization's failure never stops the others; it is logged by
// SweepOrganization and reported in that organization's Summary.
func (s *SweepService) SweepAll(ctx context.Context, force bool) ([]*Summary, error) {
	orgs, err := s.Organizations.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list organizations")
	}

	out := make([]*Summary, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, org := range orgs {
		i, id := i, org.ID
		g.Go(func() error {
			sum, _ := s.SweepOrganization(gctx, id, force)
			out[i] = sum
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].OrganizationID < out[j].OrganizationID })
	return out, nil
}

//Personal.AI order the ending
