package compliance

import (
	"context"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// RetryPolicy bounds redelivery of transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// ClaimLease is how long a claimed job stays hidden from other
	// deliverers. Zero means DefaultClaimLease.
	ClaimLease time.Duration
}

// DefaultClaimLease outlasts every channel's send timeout.
const DefaultClaimLease = 5 * time.Minute

// DefaultRetryPolicy is 5 attempts starting at one minute, capped at an hour.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Minute, MaxBackoff: time.Hour, ClaimLease: DefaultClaimLease}
}

// Backoff returns the delay after the given (1-based) failed attempt:
// base * 2^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff || d <= 0 {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func (p RetryPolicy) lease() time.Duration {
	if p.ClaimLease <= 0 {
		return DefaultClaimLease
	}
	return p.ClaimLease
}

// DeliveryStats counts the outcomes of a delivery batch.
type DeliveryStats struct {
	Sent     int `json:"sent"`
	Retrying int `json:"retrying"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	// Deferred jobs were due but their recipient is in quiet hours.
	Deferred int `json:"deferred"`
	// Contended jobs were taken by another deliverer first.
	Contended int `json:"contended"`
}

func (s *DeliveryStats) add(o attemptOutcome) {
	switch {
	case o.contended:
		s.Contended++
	case o.deferred:
		s.Deferred++
	case o.status == notification.StatusSent:
		s.Sent++
	case o.status == notification.StatusFailed:
		s.Failed++
	case o.status == notification.StatusSkipped:
		s.Skipped++
	case o.retried:
		s.Retrying++
	}
}

func (s *DeliveryStats) merge(o DeliveryStats) {
	s.Sent += o.Sent
	s.Retrying += o.Retrying
	s.Failed += o.Failed
	s.Skipped += o.Skipped
	s.Deferred += o.Deferred
	s.Contended += o.Contended
}

// handled counts jobs that left the due set.
func (s DeliveryStats) handled() int {
	return s.Sent + s.Retrying + s.Failed + s.Skipped + s.Deferred + s.Contended
}

type attemptOutcome struct {
	status    notification.Status
	retried   bool
	deferred  bool
	contended bool
}

// DeliveryResult is the payload of a delivery outcome event.
type DeliveryResult struct {
	JobID     string               `json:"job_id"`
	AlertID   string               `json:"alert_id"`
	Channel   notification.Channel `json:"channel"`
	Status    notification.Status  `json:"status"`
	Attempt   int                  `json:"attempt"`
	LastError string               `json:"last_error,omitempty"`
}

// Deliverer performs delivery attempts and records their outcome on the job.
type Deliverer struct {
	jobs    notification.JobRepository
	alerts  alert.Repository
	sender  Sender
	events  EventPublisher
	metrics *prometheus.ComplianceMetrics
	retry   RetryPolicy
	clock   Clock
	logger  logging.Logger
}

func NewDeliverer(jobs notification.JobRepository, alerts alert.Repository, sender Sender, events EventPublisher,
	metrics *prometheus.ComplianceMetrics, retry RetryPolicy, logger logging.Logger) *Deliverer {
	if events == nil {
		events = NewNopPublisher()
	}
	return &Deliverer{
		jobs: jobs, alerts: alerts, sender: sender, events: events,
		metrics: metrics, retry: retry, clock: defaultClock, logger: logger,
	}
}

// Deliver attempts job once if it is due and returns its resulting status.
//
// A job whose alert was closed before delivery is skipped, except for
// resolution notices. A job whose recipient is in quiet hours is pushed to
// the end of the window. Otherwise the job is claimed in storage first, so
// that concurrent deliverers never send it twice; losing the claim leaves
// job untouched. A transient failure reschedules the job with backoff, past
// any quiet hours, until MaxAttempts is reached; a permanent one fails it
// at once.
func (d *Deliverer) Deliver(ctx context.Context, job *notification.Job) (notification.Status, error) {
	o, err := d.attempt(ctx, job)
	return o.status, err
}

func (d *Deliverer) attempt(ctx context.Context, job *notification.Job) (attemptOutcome, error) {
	now := d.clock()
	if job.Status.IsTerminal() || !job.IsDue(now) {
		return attemptOutcome{status: job.Status}, nil
	}
	log := d.logger.With(logging.OrgID(job.OrganizationID), logging.AlertID(job.AlertID),
		logging.Channel(string(job.Channel)), logging.String("job_id", job.ID), logging.Stage("deliver"))

	skip, err := d.alertClosed(ctx, job)
	if err != nil {
		return attemptOutcome{status: job.Status}, err
	}
	if skip {
		job.Status = notification.StatusSkipped
		job.LastError = "alert closed before delivery"
		job.UpdatedAt = now
		return d.finish(ctx, job, attemptOutcome{status: job.Status}, log)
	}

	if hold := job.HoldUntil(now); hold.After(now) {
		job.NotBefore = hold
		job.UpdatedAt = now
		log.Debug("recipient in quiet hours, delivery deferred", logging.Time("not_before", hold))
		return d.finish(ctx, job, attemptOutcome{status: job.Status, deferred: true}, log)
	}

	claimed, err := d.jobs.Claim(ctx, job, now, d.retry.lease())
	if err != nil {
		log.Error("failed to claim notification job", logging.Err(err))
		return attemptOutcome{status: job.Status}, err
	}
	if !claimed {
		log.Debug("notification job taken by another deliverer")
		return attemptOutcome{status: job.Status, contended: true}, nil
	}

	sendErr := d.sender.Send(ctx, job)
	done := d.clock()
	job.UpdatedAt = done
	switch {
	case sendErr == nil:
		job.Status = notification.StatusSent
		job.SentAt = &done
		job.LastError = ""
	case errors.IsTransient(sendErr) && job.Attempt < d.retry.MaxAttempts:
		job.NotBefore = job.HoldUntil(done.Add(d.retry.Backoff(job.Attempt)))
		job.LastError = errors.Reason(sendErr)
		log.Warn("delivery failed, will retry",
			logging.Int("attempt", job.Attempt), logging.Time("not_before", job.NotBefore), logging.Err(sendErr))
	default:
		job.Status = notification.StatusFailed
		job.LastError = errors.Reason(sendErr)
		log.Error("delivery failed", logging.Int("attempt", job.Attempt), logging.Err(sendErr))
	}
	return d.finish(ctx, job, attemptOutcome{status: job.Status, retried: job.Status == notification.StatusPending}, log)
}

func (d *Deliverer) alertClosed(ctx context.Context, job *notification.Job) (bool, error) {
	if job.Trigger == notification.TriggerResolved {
		return false, nil
	}
	a, err := d.alerts.Get(ctx, job.OrganizationID, job.AlertID)
	if err != nil {
		if errors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return !a.IsLive(), nil
}

// finish records the outcome. A write that lost to another deliverer is
// reported as contended and changes nothing.
func (d *Deliverer) finish(ctx context.Context, job *notification.Job, o attemptOutcome, log logging.Logger) (attemptOutcome, error) {
	if err := d.jobs.UpdateStatus(ctx, job); err != nil {
		if errors.IsCode(err, errors.ErrCodeJobSuperseded) {
			log.Warn("delivery outcome superseded by another deliverer",
				logging.String("outcome", string(job.Status)), logging.Int("attempt", job.Attempt))
			return attemptOutcome{status: job.Status, contended: true}, nil
		}
		log.Error("failed to record delivery outcome", logging.Err(err))
		return o, err
	}
	if o.deferred {
		d.metrics.RecordNotification(string(job.Channel), "deferred")
		return o, nil
	}
	d.metrics.RecordNotification(string(job.Channel), string(job.Status))

	if job.Status.IsTerminal() {
		res := DeliveryResult{
			JobID: job.ID, AlertID: job.AlertID, Channel: job.Channel,
			Status: job.Status, Attempt: job.Attempt, LastError: job.LastError,
		}
		if err := d.events.PublishEvent(ctx, kafka.TopicNotificationDelivered, kafka.EventNotificationResult, job.OrganizationID, res); err != nil {
			log.Warn("failed to publish delivery event", logging.Err(err))
		}
	}
	return o, nil
}

// DeliverByID reloads a job and attempts it. Used by the queue consumer.
func (d *Deliverer) DeliverByID(ctx context.Context, jobID string) error {
	job, err := d.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	_, err = d.Deliver(ctx, job)
	return err
}

// DeliverBatch attempts jobs most severe first. A failure to record one job
// does not stop the rest.
func (d *Deliverer) DeliverBatch(ctx context.Context, jobs []*notification.Job) DeliveryStats {
	SortForDelivery(jobs)
	var stats DeliveryStats
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		o, err := d.attempt(ctx, j)
		if err != nil {
			continue
		}
		stats.add(o)
	}
	return stats
}

// DeliverDue attempts up to limit pending jobs whose NotBefore has passed.
func (d *Deliverer) DeliverDue(ctx context.Context, limit int) (DeliveryStats, error) {
	if limit <= 0 {
		limit = 100
	}
	jobs, err := d.jobs.ListDue(ctx, d.clock(), limit)
	if err != nil {
		return DeliveryStats{}, err
	}
	return d.DeliverBatch(ctx, jobs), nil
}

//Personal.AI order the ending
