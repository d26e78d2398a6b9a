package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// PgxQuerier is satisfied by *pgxpool.Pool and pgxmock pools.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// kindTables maps each obligation variant to its source table.
var kindTables = map[obligation.Kind]string{
	obligation.KindMedicalExamination: "medical_examinations",
	obligation.KindTrainingAssignment: "training_assignments",
	obligation.KindEquipmentCheck:     "equipment_checks",
	obligation.KindLegalObligation:    "legal_obligations",
}

// listEntitiesSQL projects the four variant tables onto the common tracked
// entity shape. Owner activity comes from the owning member or equipment;
// a legal obligation without a responsible member is always tracked.
const listEntitiesSQL = `
SELECT 'medical_examination' AS kind, x.id, x.organization_id, x.title, x.member_id AS owner_id,
       COALESCE(m.active, FALSE) AS owner_active, x.examined_on AS reference_date,
       x.periodicity_months, x.due_date, NULL::date AS published_at, x.deleted_at
  FROM medical_examinations x LEFT JOIN members m ON m.id = x.member_id
 WHERE x.organization_id = $1
UNION ALL
SELECT 'training_assignment', x.id, x.organization_id, x.title, x.member_id,
       COALESCE(m.active, FALSE), x.completed_on,
       x.periodicity_months, x.due_date, NULL::date, x.deleted_at
  FROM training_assignments x LEFT JOIN members m ON m.id = x.member_id
 WHERE x.organization_id = $1
UNION ALL
SELECT 'equipment_check', x.id, x.organization_id, x.title, x.equipment_id,
       COALESCE(e.active, FALSE), x.verified_on,
       x.periodicity_months, x.due_date, NULL::date, x.deleted_at
  FROM equipment_checks x LEFT JOIN equipment e ON e.id = x.equipment_id
 WHERE x.organization_id = $1
UNION ALL
SELECT 'legal_obligation', x.id, x.organization_id, x.title, COALESCE(x.responsible_id, ''),
       COALESCE(m.active, TRUE), x.fulfilled_on,
       x.periodicity_months, x.due_date, x.published_at, x.deleted_at
  FROM legal_obligations x LEFT JOIN members m ON m.id = x.responsible_id
 WHERE x.organization_id = $1
 ORDER BY 1, 2`

type pgxObligationRepo struct {
	db  PgxQuerier
	log logging.Logger
}

// NewPgxObligationRepo returns the tracked-entity loader. It reads through
// pgx because a sweep pulls every obligation row of an organization.
func NewPgxObligationRepo(db PgxQuerier, log logging.Logger) obligation.Repository {
	return &pgxObligationRepo{db: db, log: log}
}

func (r *pgxObligationRepo) ListByOrganization(ctx context.Context, organizationID string) ([]obligation.TrackedEntity, error) {
	rows, err := r.db.Query(ctx, listEntitiesSQL, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load tracked entities")
	}
	defer rows.Close()

	var out []obligation.TrackedEntity
	for rows.Next() {
		var (
			e           obligation.TrackedEntity
			kind        string
			periodicity *int32
		)
		if err := rows.Scan(&kind, &e.ID, &e.OrganizationID, &e.Title, &e.OwnerID, &e.OwnerActive,
			&e.ReferenceDate, &periodicity, &e.DueDate, &e.PublishedAt, &e.DeletedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan tracked entity")
		}
		e.Kind = obligation.Kind(kind)
		if periodicity != nil {
			n := int(*periodicity)
			e.PeriodicityMonths = &n
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "tracked entity rows iteration failed")
	}
	return out, nil
}

// SaveComputed writes the due-date and severity caches in one transaction.
func (r *pgxObligationRepo) SaveComputed(ctx context.Context, organizationID string, computed []obligation.Computed) error {
	if len(computed) == 0 {
		return nil
	}
	return postgres.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		for _, c := range computed {
			table, ok := kindTables[c.Ref.Kind]
			if !ok {
				return errors.InvalidParam("unknown obligation kind").WithDetail("kind=" + string(c.Ref.Kind))
			}
			var due *time.Time
			if c.DueDate != nil {
				d := c.DueDate.UTC()
				due = &d
			}
			_, err := tx.Exec(ctx,
				`UPDATE `+table+` SET computed_due_date = $1, severity = $2, unscheduled = $3, computed_at = $4
				  WHERE id = $5 AND organization_id = $6`,
				due, int16(c.Severity), c.Unscheduled, c.ComputedAt, c.Ref.ID, organizationID)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save computed deadline").
					WithDetail("entity=" + c.Ref.String())
			}
		}
		return nil
	})
}

//Personal.AI order the ending
