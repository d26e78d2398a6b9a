package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/redis"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

func newQueryService(t *testing.T, f *fixture, cache ScoreCache) *QueryService {
	t.Helper()
	q := NewQueryService(f.orgs, f.alerts, f.jobs, f.aggregator, cache, time.Minute, nil, f.logger)
	q.clock = func() time.Time { return f.now }
	return q
}

func TestQuery_ScoreIsCached(t *testing.T) {
	f := newFixture(t)
	f.entities.put(medical("m-1", daysFrom(baseNow, -2)), medical("m-2", daysFrom(baseNow, 100)))

	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "sentinel:"}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	q := newQueryService(t, f, redis.NewCache(client, time.Minute, logging.NewNopLogger()))

	ctx := context.Background()
	first, err := q.Score(ctx, testOrg)
	require.NoError(t, err)
	assert.True(t, first.Scored)
	assert.Equal(t, 85, first.Total)

	second, err := q.Score(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, 1, f.entities.loads, "second read is served from cache")
	assert.True(t, mr.Exists("sentinel:score:"+testOrg))
}

func TestQuery_ScoreWithoutCache(t *testing.T) {
	f := newFixture(t)
	q := newQueryService(t, f, nil)

	sc, err := q.Score(context.Background(), testOrg)
	require.NoError(t, err)
	assert.False(t, sc.Scored, "an organization with nothing tracked is not scored")
}

func TestQuery_Overview(t *testing.T) {
	f := newFixture(t)
	f.entities.put(medical("m-1", daysFrom(baseNow, 4)), medical("m-2", nil))
	_, err := f.sweep.SweepOrganization(context.Background(), testOrg, false)
	require.NoError(t, err)

	q := newQueryService(t, f, nil)
	ov, err := q.Overview(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, ov.ActiveAlerts, 1)
	assert.Equal(t, obligation.TierUrgent, ov.ActiveAlerts[0].Severity)
	assert.Equal(t, []obligation.EntityRef{{Kind: obligation.KindMedicalExamination, ID: "m-2"}}, ov.Unscheduled)
	assert.True(t, ov.Score.Scored)

	jobs, total, err := q.ListNotifications(context.Background(), testOrg, notification.JobFilter{AlertID: ov.ActiveAlerts[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, jobs, 1)
}

func TestQuery_UnknownOrganization(t *testing.T) {
	f := newFixture(t)
	q := newQueryService(t, f, nil)
	_, err := q.Overview(context.Background(), "missing")
	assert.Error(t, err)
}

//Personal.AI order the ending
