package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

const dedupConstraint = "uq_notification_dedup"

var jobColumns = []string{
	"id", "alert_id", "organization_id", "entity_kind", "entity_id", "channel", "recipient_ref", "address",
	"severity", "trigger_kind", "title", "dedup_key", "attempt", "status", "not_before", "last_error",
	"created_at", "updated_at", "sent_at", "quiet_hours",
}

type postgresJobRepo struct {
	baseRepo
}

// NewPostgresJobRepo returns a notification.JobRepository backed by
// notification_jobs.
func NewPostgresJobRepo(conn *postgres.Connection, log logging.Logger) notification.JobRepository {
	return &postgresJobRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func scanJob(s scanner) (*notification.Job, error) {
	var (
		j                      notification.Job
		kind, ch, trig, status string
		severity               int16
		sentAt                 sql.NullTime
		quiet                  []byte
	)
	err := s.Scan(&j.ID, &j.AlertID, &j.OrganizationID, &kind, &j.Ref.ID, &ch, &j.RecipientRef, &j.Address,
		&severity, &trig, &j.Title, &j.DedupKey, &j.Attempt, &status, &j.NotBefore, &j.LastError,
		&j.CreatedAt, &j.UpdatedAt, &sentAt, &quiet)
	if err != nil {
		return nil, err
	}
	if len(quiet) > 0 {
		var qh notification.QuietHours
		if err := json.Unmarshal(quiet, &qh); err != nil {
			return nil, err
		}
		j.QuietHours = &qh
	}
	j.Ref.Kind = obligation.Kind(kind)
	j.Channel = notification.Channel(ch)
	j.Trigger = notification.Trigger(trig)
	j.Status = notification.Status(status)
	j.Severity = obligation.Tier(severity)
	j.NotBefore = j.NotBefore.UTC()
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	j.SentAt = timePtr(sentAt)
	return &j, nil
}

// quietHoursValue encodes q for the jsonb column. Text, not []byte, since
// lib/pq sends byte slices as bytea.
func quietHoursValue(q *notification.QuietHours) (interface{}, error) {
	if q == nil {
		return nil, nil
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *postgresJobRepo) collect(ctx context.Context, b sq.Sqlizer) ([]*notification.Job, error) {
	rows, err := r.queryRows(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notification.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan notification job")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job rows iteration failed")
	}
	return out, nil
}

// Enqueue inserts job. The dedup_key constraint turns a second insert of
// the same (alert, channel, recipient, severity slot) into a
// duplicate-notification error.
func (r *postgresJobRepo) Enqueue(ctx context.Context, j *notification.Job) error {
	quiet, err := quietHoursValue(j.QuietHours)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode quiet hours")
	}
	query, args, err := psql.Insert("notification_jobs").Columns(jobColumns...).Values(
		j.ID, j.AlertID, j.OrganizationID, string(j.Ref.Kind), j.Ref.ID, string(j.Channel), j.RecipientRef, j.Address,
		int16(j.Severity), string(j.Trigger), j.Title, j.DedupKey, j.Attempt, string(j.Status), j.NotBefore, j.LastError,
		j.CreatedAt, j.UpdatedAt, nullTime(j.SentAt), quiet,
	).ToSql()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build insert")
	}

	if _, err := r.executor().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, dedupConstraint) {
			return errors.New(errors.ErrCodeDuplicateNotification, "notification already enqueued").
				WithDetail("dedup_key=" + j.DedupKey).WithCause(err)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to enqueue notification")
	}
	return nil
}

func (r *postgresJobRepo) Get(ctx context.Context, id string) (*notification.Job, error) {
	query, args, err := psql.Select(jobColumns...).From("notification_jobs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build query")
	}
	j, err := scanJob(r.executor().QueryRowContext(ctx, query, args...))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("notification job not found").WithDetail("id=" + id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get notification job")
	}
	return j, nil
}

func (r *postgresJobRepo) List(ctx context.Context, organizationID string, f notification.JobFilter) ([]*notification.Job, int64, error) {
	where := sq.And{sq.Eq{"organization_id": organizationID}}
	if f.AlertID != "" {
		where = append(where, sq.Eq{"alert_id": f.AlertID})
	}
	if f.Channel != "" {
		where = append(where, sq.Eq{"channel": string(f.Channel)})
	}
	if len(f.Statuses) > 0 {
		ss := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			ss[i] = string(s)
		}
		where = append(where, sq.Eq{"status": ss})
	}

	total, err := r.count(ctx, psql.Select("COUNT(*)").From("notification_jobs").Where(where))
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(ctx, psql.Select(jobColumns...).From("notification_jobs").
		Where(where).
		OrderBy("created_at DESC", "id ASC").
		Limit(pageLimit(f.Limit)).
		Offset(uint64(max(f.Offset, 0))))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *postgresJobRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*notification.Job, error) {
	return r.collect(ctx, psql.Select(jobColumns...).From("notification_jobs").
		Where(sq.Eq{"status": string(notification.StatusPending)}).
		Where(sq.LtOrEq{"not_before": now}).
		OrderBy("severity DESC", "not_before ASC", "id ASC").
		Limit(pageLimit(limit)))
}

// Claim is a conditional update on (status, attempt, not_before). Moving
// not_before to the lease end keeps the job out of ListDue while it is
// being sent, and a crashed deliverer's job becomes due again afterwards.
func (r *postgresJobRepo) Claim(ctx context.Context, j *notification.Job, now time.Time, lease time.Duration) (bool, error) {
	leaseUntil := now.Add(lease)
	query, args, err := psql.Update("notification_jobs").
		Set("attempt", sq.Expr("attempt + 1")).
		Set("not_before", leaseUntil).
		Set("updated_at", now).
		Where(sq.Eq{"id": j.ID, "status": string(notification.StatusPending), "attempt": j.Attempt}).
		Where(sq.LtOrEq{"not_before": now}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "failed to build claim")
	}
	res, err := r.executor().ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to claim notification job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	j.Attempt++
	j.NotBefore = leaseUntil
	j.UpdatedAt = now
	return true, nil
}

func (r *postgresJobRepo) UpdateStatus(ctx context.Context, j *notification.Job) error {
	query, args, err := psql.Update("notification_jobs").
		Set("status", string(j.Status)).
		Set("not_before", j.NotBefore).
		Set("last_error", j.LastError).
		Set("sent_at", nullTime(j.SentAt)).
		Set("updated_at", j.UpdatedAt).
		Where(sq.Eq{"id": j.ID, "status": string(notification.StatusPending), "attempt": j.Attempt}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build update")
	}
	res, err := r.executor().ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update notification job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeJobSuperseded, "notification job was changed by another deliverer").
			WithDetail("id=" + j.ID)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Members
// ─────────────────────────────────────────────────────────────────────────────

type postgresMemberRepo struct {
	baseRepo
}

// NewPostgresMemberRepo returns the recipient directory. Only active members
// flagged receives_alerts are notification recipients.
func NewPostgresMemberRepo(conn *postgres.Connection, log logging.Logger) notification.MemberRepository {
	return &postgresMemberRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func (r *postgresMemberRepo) ListActive(ctx context.Context, organizationID string) ([]notification.Member, error) {
	rows, err := r.queryRows(ctx, psql.
		Select("id", "organization_id", "name", "email", "phone", "whatsapp", "push_topic", "active", "preference").
		From("members").
		Where(sq.Eq{"organization_id": organizationID, "active": true, "receives_alerts": true}).
		OrderBy("id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Member
	for rows.Next() {
		var (
			m   notification.Member
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Email, &m.Phone, &m.WhatsApp, &m.PushTopic, &m.Active, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan member")
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &m.Preference); err != nil {
				// A broken preference document falls back to email-only
				// rather than silencing the member.
				r.log.Warn("invalid member preference", logging.String("member_id", m.ID), logging.Err(err))
				m.Preference = notification.Preference{}
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "member rows iteration failed")
	}
	return out, nil
}

//Personal.AI order the ending
