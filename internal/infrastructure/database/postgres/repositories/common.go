// Package repositories implements the domain repositories on PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// queryExecutor abstracts sql.DB and sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// psql builds dollar-placeholder statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type baseRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

func (r *baseRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

func (r *baseRepo) queryRows(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build query")
	}
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query failed")
	}
	return rows, nil
}

func (r *baseRepo) count(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to build count query")
	}
	var n int64
	if err := r.executor().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "count failed")
	}
	return n, nil
}

// isUniqueViolation reports a 23505 from lib/pq, optionally on a named
// constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func pageLimit(limit int) uint64 {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return uint64(limit)
}

//Personal.AI order the ending
