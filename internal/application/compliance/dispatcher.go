package compliance

import (
	"context"
	"sort"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// Dispatcher fans an alert out into persisted notification jobs.
type Dispatcher struct {
	members notification.MemberRepository
	jobs    notification.JobRepository
	clock   Clock
	newID   IDGenerator
	logger  logging.Logger
}

func NewDispatcher(members notification.MemberRepository, jobs notification.JobRepository, logger logging.Logger) *Dispatcher {
	return &Dispatcher{members: members, jobs: jobs, clock: defaultClock, newID: defaultID, logger: logger}
}

// Dispatch enqueues one job per member and enabled channel for alert a.
// Opted-out channels and members without an address are skipped. Members in
// quiet hours get a deferred job, and every job keeps its recipient's window
// so that later attempts respect it too. Jobs whose dedup key already exists are not
// returned, so a repeated dispatch of the same alert at the same severity
// yields nothing new.
func (d *Dispatcher) Dispatch(ctx context.Context, a *alert.Alert, trigger notification.Trigger) ([]*notification.Job, error) {
	members, err := d.members.ListActive(ctx, a.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load recipients").WithDetail(a.OrganizationID)
	}

	log := d.logger.With(logging.OrgID(a.OrganizationID), logging.AlertID(a.ID), logging.Stage("dispatch"))
	now := d.clock()
	slot := notification.SeveritySlot(a.Severity, trigger)

	var out []*notification.Job
	for _, m := range members {
		notBefore := now
		var quiet *notification.QuietHours
		if m.Preference.QuietHours != nil {
			deferred, qerr := m.Preference.QuietHours.DeferUntil(now)
			if qerr != nil {
				log.Warn("ignoring invalid quiet hours", logging.String("member_id", m.ID), logging.Err(qerr))
			} else {
				notBefore = deferred.UTC()
				qh := *m.Preference.QuietHours
				quiet = &qh
			}
		}

		for _, ch := range m.Preference.EnabledChannels() {
			if !m.Preference.Allows(a.Ref.Kind, ch, a.Severity) {
				continue
			}
			addr := m.Address(ch)
			if addr == "" {
				log.Debug("member has no address for channel", logging.String("member_id", m.ID), logging.Channel(string(ch)))
				continue
			}

			job := &notification.Job{
				ID:             d.newID(),
				AlertID:        a.ID,
				OrganizationID: a.OrganizationID,
				Ref:            a.Ref,
				Channel:        ch,
				RecipientRef:   m.ID,
				Address:        addr,
				Severity:       a.Severity,
				Trigger:        trigger,
				Title:          a.Title,
				DedupKey:       notification.DedupKey(a.ID, ch, m.ID, slot),
				Status:         notification.StatusPending,
				QuietHours:     quiet,
				NotBefore:      notBefore,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := d.jobs.Enqueue(ctx, job); err != nil {
				if errors.IsCode(err, errors.ErrCodeDuplicateNotification) {
					continue
				}
				return out, err
			}
			out = append(out, job)
		}
	}
	return out, nil
}

// SortForDelivery orders jobs most severe first, then by creation and id.
func SortForDelivery(jobs []*notification.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Severity != jobs[j].Severity {
			return jobs[i].Severity > jobs[j].Severity
		}
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}

//Personal.AI order the ending
