package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ComplianceSentinel/pkg/errors"
)

type AlertRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo alert.Repository
	now  time.Time
}

func (s *AlertRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	log := logging.NewNopLogger()
	s.repo = NewPostgresAlertRepo(postgres.NewConnectionWithDB(s.db, log), log)
	s.now = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
}

func (s *AlertRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *AlertRepoTestSuite) alertRow() *sqlmock.Rows {
	due := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(alertColumns).AddRow(
		"a-1", "org-1", "medical_examination", "me-1", int64(obligation.TierUrgent), "active", "Annual exam",
		due, s.now, nil, s.now, nil, "", int64(obligation.TierWarning), int64(2),
	)
}

func (s *AlertRepoTestSuite) TestListLive() {
	s.mock.ExpectQuery(`SELECT .* FROM compliance_alerts WHERE organization_id = \$1 AND status IN \(\$2,\$3\) ORDER BY created_at ASC, id ASC`).
		WithArgs("org-1", "active", "acknowledged").
		WillReturnRows(s.alertRow())

	got, err := s.repo.ListLive(context.Background(), "org-1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	a := got[0]
	s.Equal(obligation.EntityRef{Kind: obligation.KindMedicalExamination, ID: "me-1"}, a.Ref)
	s.Equal(obligation.TierUrgent, a.Severity)
	s.Equal(alert.StatusActive, a.Status)
	s.Require().NotNil(a.NotifiedSeverity)
	s.Equal(obligation.TierWarning, *a.NotifiedSeverity)
	s.Nil(a.LastEscalatedAt)
	s.Equal(2, a.Version)
}

func (s *AlertRepoTestSuite) TestLatestDismissed_KeepsOnlyDismissals() {
	s.mock.ExpectQuery(`SELECT DISTINCT ON \(entity_kind, entity_id\) entity_kind, entity_id, severity, status FROM compliance_alerts`).
		WithArgs("org-1", "dismissed", "resolved").
		WillReturnRows(sqlmock.NewRows([]string{"entity_kind", "entity_id", "severity", "status"}).
			AddRow("training_assignment", "t-1", int64(obligation.TierWarning), "dismissed").
			AddRow("training_assignment", "t-2", int64(obligation.TierUrgent), "resolved"))

	got, err := s.repo.LatestDismissed(context.Background(), "org-1")
	s.Require().NoError(err)
	s.Equal(map[obligation.EntityRef]obligation.Tier{
		{Kind: obligation.KindTrainingAssignment, ID: "t-1"}: obligation.TierWarning,
	}, got)
}

func (s *AlertRepoTestSuite) TestList_WithFilters() {
	minTier := obligation.TierWarning
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM compliance_alerts WHERE \(organization_id = \$1 AND status IN \(\$2\) AND severity >= \$3 AND entity_kind = \$4\)`).
		WithArgs("org-1", "active", int16(minTier), "medical_examination").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))
	s.mock.ExpectQuery(`SELECT .* FROM compliance_alerts WHERE .* ORDER BY severity DESC, due_date ASC NULLS LAST, id ASC LIMIT 10 OFFSET 20`).
		WithArgs("org-1", "active", int16(minTier), "medical_examination").
		WillReturnRows(s.alertRow())

	items, total, err := s.repo.List(context.Background(), "org-1", alert.ListFilter{
		Statuses:    []alert.Status{alert.StatusActive},
		MinSeverity: &minTier,
		Kind:        obligation.KindMedicalExamination,
		Limit:       10,
		Offset:      20,
	})
	s.Require().NoError(err)
	s.Equal(int64(7), total)
	s.Len(items, 1)
}

func (s *AlertRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectQuery(`SELECT .* FROM compliance_alerts WHERE id = \$1 AND organization_id = \$2`).
		WithArgs("missing", "org-1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.Get(context.Background(), "org-1", "missing")
	s.True(pkgerrors.IsNotFound(err))
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeAlertNotFound))
}

func (s *AlertRepoTestSuite) TestCreate_LiveAlertConflict() {
	s.mock.ExpectExec(`INSERT INTO compliance_alerts`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: liveAlertIndex})

	a := &alert.Alert{ID: "a-2", OrganizationID: "org-1", Ref: obligation.EntityRef{Kind: obligation.KindEquipmentCheck, ID: "eq-1"},
		Severity: obligation.TierExpired, Status: alert.StatusActive, CreatedAt: s.now, UpdatedAt: s.now, Version: 1}
	err := s.repo.Create(context.Background(), a)
	s.True(pkgerrors.IsConflict(err))
}

func (s *AlertRepoTestSuite) TestUpdate_CompareAndSet() {
	a := &alert.Alert{ID: "a-1", Severity: obligation.TierExpired, Status: alert.StatusActive, UpdatedAt: s.now, LastEscalatedAt: &s.now}

	s.mock.ExpectExec(`UPDATE compliance_alerts SET .* version = \$10 WHERE id = \$11 AND version = \$12`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Require().NoError(s.repo.Update(context.Background(), a, 3))
	s.Equal(4, a.Version)

	s.mock.ExpectExec(`UPDATE compliance_alerts`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.repo.Update(context.Background(), a, 3)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeAlertVersionStale))
}

func (s *AlertRepoTestSuite) TestMarkNotified() {
	s.mock.ExpectExec(`UPDATE compliance_alerts SET notified_severity = GREATEST`).
		WithArgs("a-1", int16(obligation.TierUrgent), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.repo.MarkNotified(context.Background(), "a-1", obligation.TierUrgent))

	s.mock.ExpectExec(`UPDATE compliance_alerts`).WillReturnError(errors.New("conn reset"))
	s.Error(s.repo.MarkNotified(context.Background(), "a-1", obligation.TierUrgent))
}

func TestAlertRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AlertRepoTestSuite))
}

//Personal.AI order the ending
