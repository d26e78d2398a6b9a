package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/testutil"
	pkgerrors "github.com/turtacn/ComplianceSentinel/pkg/errors"
)

type NotificationRepoTestSuite struct {
	suite.Suite
	mock    sqlmock.Sqlmock
	db      *sql.DB
	jobs    notification.JobRepository
	members notification.MemberRepository
	log     *testutil.MockLogger
	now     time.Time
}

func (s *NotificationRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.log = testutil.NewMockLogger()
	conn := postgres.NewConnectionWithDB(s.db, s.log)
	s.jobs = NewPostgresJobRepo(conn, s.log)
	s.members = NewPostgresMemberRepo(conn, s.log)
	s.now = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
}

func (s *NotificationRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *NotificationRepoTestSuite) job() *notification.Job {
	return &notification.Job{
		ID: "j-1", AlertID: "a-1", OrganizationID: "org-1",
		Ref:     obligation.EntityRef{Kind: obligation.KindMedicalExamination, ID: "me-1"},
		Channel: notification.ChannelEmail, RecipientRef: "m-1", Address: "ana@example.com",
		Severity: obligation.TierUrgent, Trigger: notification.TriggerCreated, Title: "Annual exam",
		DedupKey: "k-1", Status: notification.StatusPending, NotBefore: s.now, CreatedAt: s.now, UpdatedAt: s.now,
	}
}

func (s *NotificationRepoTestSuite) TestEnqueue() {
	s.mock.ExpectExec(`INSERT INTO notification_jobs`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.jobs.Enqueue(context.Background(), s.job()))
}

func (s *NotificationRepoTestSuite) TestEnqueue_DuplicateDedupKey() {
	s.mock.ExpectExec(`INSERT INTO notification_jobs`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: dedupConstraint})

	err := s.jobs.Enqueue(context.Background(), s.job())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDuplicateNotification))
	s.True(pkgerrors.IsConflict(err))
}

func (s *NotificationRepoTestSuite) TestListDue() {
	rows := sqlmock.NewRows(jobColumns).AddRow(
		"j-1", "a-1", "org-1", "medical_examination", "me-1", "sms", "m-1", "+40700000000",
		int64(obligation.TierExpired), "escalated", "Annual exam", "k-1", int64(1), "pending", s.now, "timeout",
		s.now, s.now, nil, []byte(`{"start":"22:00","end":"07:00","timezone":"Europe/Bucharest"}`),
	)
	s.mock.ExpectQuery(`SELECT .* FROM notification_jobs WHERE status = \$1 AND not_before <= \$2 ORDER BY severity DESC, not_before ASC, id ASC LIMIT 100`).
		WithArgs("pending", s.now).
		WillReturnRows(rows)

	got, err := s.jobs.ListDue(context.Background(), s.now, 100)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(notification.ChannelSMS, got[0].Channel)
	s.Equal(notification.TriggerEscalated, got[0].Trigger)
	s.Equal(1, got[0].Attempt)
	s.Equal("timeout", got[0].LastError)
	s.Nil(got[0].SentAt)
	s.Require().NotNil(got[0].QuietHours)
	s.Equal("22:00", got[0].QuietHours.Start)
}

func (s *NotificationRepoTestSuite) TestEnqueue_QuietHoursAsJSONText() {
	j := s.job()
	j.QuietHours = &notification.QuietHours{Start: "22:00", End: "07:00", Timezone: "UTC"}
	s.mock.ExpectExec(`INSERT INTO notification_jobs`).
		WithArgs(j.ID, j.AlertID, j.OrganizationID, "medical_examination", "me-1", "email", "m-1", "ana@example.com",
			int16(obligation.TierUrgent), "created", "Annual exam", "k-1", 0, "pending", s.now, "",
			s.now, s.now, sqlmock.AnyArg(), `{"start":"22:00","end":"07:00","timezone":"UTC"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.jobs.Enqueue(context.Background(), j))
}

func (s *NotificationRepoTestSuite) TestClaim() {
	j := s.job()
	lease := 5 * time.Minute
	s.mock.ExpectExec(`UPDATE notification_jobs SET attempt = attempt \+ 1, not_before = \$1, updated_at = \$2 WHERE attempt = \$3 AND id = \$4 AND status = \$5 AND not_before <= \$6`).
		WithArgs(s.now.Add(lease), s.now, 0, "j-1", "pending", s.now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.jobs.Claim(context.Background(), j, s.now, lease)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(1, j.Attempt)
	s.Equal(s.now.Add(lease), j.NotBefore)
}

func (s *NotificationRepoTestSuite) TestClaim_TakenElsewhere() {
	j := s.job()
	s.mock.ExpectExec(`UPDATE notification_jobs SET attempt = attempt \+ 1`).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.jobs.Claim(context.Background(), j, s.now, time.Minute)
	s.Require().NoError(err)
	s.False(ok)
	s.Equal(0, j.Attempt)
	s.Equal(s.now, j.NotBefore)
}

func (s *NotificationRepoTestSuite) TestUpdateStatus_ComparesAttempt() {
	j := s.job()
	j.Attempt = 2
	j.Status = notification.StatusSent
	s.mock.ExpectExec(`UPDATE notification_jobs SET status = \$1, not_before = \$2, last_error = \$3, sent_at = \$4, updated_at = \$5 WHERE attempt = \$6 AND id = \$7 AND status = \$8`).
		WithArgs("sent", s.now, "", sqlmock.AnyArg(), s.now, 2, "j-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.jobs.UpdateStatus(context.Background(), j))
}

func (s *NotificationRepoTestSuite) TestUpdateStatus_Superseded() {
	s.mock.ExpectExec(`UPDATE notification_jobs SET status = \$1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.jobs.UpdateStatus(context.Background(), s.job())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeJobSuperseded))
	s.True(pkgerrors.IsConflict(err))
}

func (s *NotificationRepoTestSuite) TestListActiveMembers() {
	cols := []string{"id", "organization_id", "name", "email", "phone", "whatsapp", "push_topic", "active", "preference"}
	s.mock.ExpectQuery(`SELECT .* FROM members WHERE active = \$1 AND organization_id = \$2 AND receives_alerts = \$3`).
		WithArgs(true, "org-1", true).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-1", "org-1", "Ana", "ana@example.com", "", "", "", true,
				[]byte(`{"channels":["email","sms"],"min_severity":"warning","quiet_hours":{"start":"22:00","end":"07:00","timezone":"Europe/Bucharest"}}`)).
			AddRow("m-2", "org-1", "Radu", "radu@example.com", "", "", "", true, []byte(`{not json`)))

	got, err := s.members.ListActive(context.Background(), "org-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal([]notification.Channel{notification.ChannelEmail, notification.ChannelSMS}, got[0].Preference.Channels)
	s.Equal(obligation.TierWarning, got[0].Preference.MinSeverity)
	s.Require().NotNil(got[0].Preference.QuietHours)
	s.Equal([]notification.Channel{notification.ChannelEmail}, got[1].Preference.EnabledChannels())
	s.True(s.log.HasMessage("warn", "invalid member preference"))
}

func TestNotificationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationRepoTestSuite))
}

//Personal.AI order the ending
