package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

const liveAlertIndex = "uq_alerts_live_entity"

var alertColumns = []string{
	"id", "organization_id", "entity_kind", "entity_id", "severity", "status", "title", "due_date",
	"created_at", "last_escalated_at", "updated_at", "closed_at", "closed_by", "notified_severity", "version",
}

type postgresAlertRepo struct {
	baseRepo
}

// NewPostgresAlertRepo returns an alert.Repository backed by compliance_alerts.
func NewPostgresAlertRepo(conn *postgres.Connection, log logging.Logger) alert.Repository {
	return &postgresAlertRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func scanAlert(s scanner) (*alert.Alert, error) {
	var (
		a                       alert.Alert
		kind                    string
		severity                int16
		status                  string
		dueDate, escalated, cls sql.NullTime
		notified                sql.NullInt16
	)
	err := s.Scan(&a.ID, &a.OrganizationID, &kind, &a.Ref.ID, &severity, &status, &a.Title, &dueDate,
		&a.CreatedAt, &escalated, &a.UpdatedAt, &cls, &a.ClosedBy, &notified, &a.Version)
	if err != nil {
		return nil, err
	}
	a.Ref.Kind = obligation.Kind(kind)
	a.Severity = obligation.Tier(severity)
	a.Status = alert.Status(status)
	a.DueDate = timePtr(dueDate)
	a.LastEscalatedAt = timePtr(escalated)
	a.ClosedAt = timePtr(cls)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if notified.Valid {
		t := obligation.Tier(notified.Int16)
		a.NotifiedSeverity = &t
	}
	return &a, nil
}

func notifiedValue(t *obligation.Tier) interface{} {
	if t == nil {
		return nil
	}
	return int16(*t)
}

func (r *postgresAlertRepo) selectAlerts() sq.SelectBuilder {
	return psql.Select(alertColumns...).From("compliance_alerts")
}

func (r *postgresAlertRepo) collect(ctx context.Context, b sq.Sqlizer) ([]*alert.Alert, error) {
	rows, err := r.queryRows(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alert")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "alert rows iteration failed")
	}
	return out, nil
}

func (r *postgresAlertRepo) ListLive(ctx context.Context, organizationID string) ([]*alert.Alert, error) {
	return r.collect(ctx, r.selectAlerts().
		Where(sq.Eq{"organization_id": organizationID, "status": statusStrings(alert.LiveStatuses())}).
		OrderBy("created_at ASC", "id ASC"))
}

// LatestDismissed looks at the most recent closed alert of every entity and
// keeps the dismissed ones. A later resolution therefore lifts the
// suppression.
func (r *postgresAlertRepo) LatestDismissed(ctx context.Context, organizationID string) (map[obligation.EntityRef]obligation.Tier, error) {
	b := psql.Select("DISTINCT ON (entity_kind, entity_id) entity_kind", "entity_id", "severity", "status").
		From("compliance_alerts").
		Where(sq.Eq{"organization_id": organizationID, "status": []string{string(alert.StatusDismissed), string(alert.StatusResolved)}}).
		OrderBy("entity_kind", "entity_id", "closed_at DESC NULLS LAST")

	rows, err := r.queryRows(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[obligation.EntityRef]obligation.Tier)
	for rows.Next() {
		var (
			kind, id, status string
			severity         int16
		)
		if err := rows.Scan(&kind, &id, &severity, &status); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan dismissal")
		}
		if alert.Status(status) == alert.StatusDismissed {
			out[obligation.EntityRef{Kind: obligation.Kind(kind), ID: id}] = obligation.Tier(severity)
		}
	}
	return out, rows.Err()
}

func (r *postgresAlertRepo) List(ctx context.Context, organizationID string, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	where := sq.And{sq.Eq{"organization_id": organizationID}}
	if len(f.Statuses) > 0 {
		where = append(where, sq.Eq{"status": statusStrings(f.Statuses)})
	}
	if f.MinSeverity != nil {
		where = append(where, sq.GtOrEq{"severity": int16(*f.MinSeverity)})
	}
	if f.Kind != "" {
		where = append(where, sq.Eq{"entity_kind": string(f.Kind)})
	}

	total, err := r.count(ctx, psql.Select("COUNT(*)").From("compliance_alerts").Where(where))
	if err != nil {
		return nil, 0, err
	}

	items, err := r.collect(ctx, r.selectAlerts().
		Where(where).
		OrderBy("severity DESC", "due_date ASC NULLS LAST", "id ASC").
		Limit(pageLimit(f.Limit)).
		Offset(uint64(max(f.Offset, 0))))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *postgresAlertRepo) Get(ctx context.Context, organizationID, id string) (*alert.Alert, error) {
	query, args, err := r.selectAlerts().Where(sq.Eq{"organization_id": organizationID, "id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build query")
	}
	a, err := scanAlert(r.executor().QueryRowContext(ctx, query, args...))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAlertNotFound, "alert not found").WithDetail("id=" + id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get alert")
	}
	return a, nil
}

func (r *postgresAlertRepo) Create(ctx context.Context, a *alert.Alert) error {
	query, args, err := psql.Insert("compliance_alerts").Columns(alertColumns...).Values(
		a.ID, a.OrganizationID, string(a.Ref.Kind), a.Ref.ID, int16(a.Severity), string(a.Status), a.Title,
		nullTime(a.DueDate), a.CreatedAt, nullTime(a.LastEscalatedAt), a.UpdatedAt, nullTime(a.ClosedAt),
		a.ClosedBy, notifiedValue(a.NotifiedSeverity), a.Version,
	).ToSql()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build insert")
	}

	if _, err := r.executor().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, liveAlertIndex) {
			return errors.New(errors.ErrCodeConflict, "entity already has a live alert").
				WithDetail("entity=" + a.Ref.String()).WithCause(err)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create alert")
	}
	return nil
}

// Update is a compare-and-set on version; the stored version becomes
// expectedVersion+1.
func (r *postgresAlertRepo) Update(ctx context.Context, a *alert.Alert, expectedVersion int) error {
	next := expectedVersion + 1
	query, args, err := psql.Update("compliance_alerts").
		Set("severity", int16(a.Severity)).
		Set("status", string(a.Status)).
		Set("title", a.Title).
		Set("due_date", nullTime(a.DueDate)).
		Set("last_escalated_at", nullTime(a.LastEscalatedAt)).
		Set("updated_at", a.UpdatedAt).
		Set("closed_at", nullTime(a.ClosedAt)).
		Set("closed_by", a.ClosedBy).
		Set("notified_severity", notifiedValue(a.NotifiedSeverity)).
		Set("version", next).
		Where(sq.Eq{"id": a.ID, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build update")
	}

	res, err := r.executor().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, liveAlertIndex) {
			return errors.New(errors.ErrCodeConflict, "entity already has a live alert").WithCause(err)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update alert")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeAlertVersionStale, "alert was modified concurrently").
			WithDetail("id=" + a.ID)
	}
	a.Version = next
	return nil
}

func (r *postgresAlertRepo) MarkNotified(ctx context.Context, id string, severity obligation.Tier) error {
	_, err := r.executor().ExecContext(ctx,
		`UPDATE compliance_alerts SET notified_severity = GREATEST(COALESCE(notified_severity, 0), $2), updated_at = $3 WHERE id = $1`,
		id, int16(severity), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark alert notified")
	}
	return nil
}

func statusStrings(ss []alert.Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

//Personal.AI order the ending
