package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

type postgresOrganizationRepo struct {
	baseRepo
}

func NewPostgresOrganizationRepo(conn *postgres.Connection, log logging.Logger) obligation.OrganizationRepository {
	return &postgresOrganizationRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

var orgSelect = psql.Select("id", "name", "timezone", "active").From("organizations")

func (r *postgresOrganizationRepo) ListActive(ctx context.Context) ([]obligation.Organization, error) {
	rows, err := r.queryRows(ctx, orgSelect.Where(sq.Eq{"active": true}).OrderBy("id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []obligation.Organization
	for rows.Next() {
		var o obligation.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Timezone, &o.Active); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan organization")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "organization rows iteration failed")
	}
	return out, nil
}

func (r *postgresOrganizationRepo) Get(ctx context.Context, id string) (*obligation.Organization, error) {
	query, args, err := orgSelect.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build query")
	}
	var o obligation.Organization
	err = r.executor().QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.Name, &o.Timezone, &o.Active)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeOrganizationNotFound, "organization not found").WithDetail("id=" + id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get organization")
	}
	return &o, nil
}

//Personal.AI order the ending
