package compliance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

func TestDuePoller_DeliversDueJobs(t *testing.T) {
	f := newFixture(t)
	seedJob(t, f)
	p := NewDuePoller(f.deliverer, time.Minute, 1, f.logger)

	stats, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, f.sender.count())

	stats, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{}, stats)
}

func TestDuePoller_RetryWaitsForBackoff(t *testing.T) {
	f := newFixture(t)
	f.sender.errFn = func(*notification.Job) error {
		return errors.NewDispatchError("email", true, fmt.Errorf("gateway timeout"))
	}
	job := seedJob(t, f)
	p := NewDuePoller(f.deliverer, time.Minute, 10, f.logger)

	stats, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Retrying)

	// Still inside the backoff window.
	stats, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{}, stats)

	f.sender.errFn = nil
	f.advance(time.Minute)
	stats, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)

	stored, _ := f.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, 2, stored.Attempt)
}

func TestDuePoller_LateJobWaitsOutQuietHours(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC)
	f.members.members[testOrg] = []notification.Member{{
		ID: "member-1", OrganizationID: testOrg, Email: "hse@example.com", Active: true,
		Preference: notification.Preference{
			QuietHours: &notification.QuietHours{Start: "22:00", End: "07:00", Timezone: "UTC"},
		},
	}}
	job := seedJob(t, f)
	p := NewDuePoller(f.deliverer, time.Minute, 10, f.logger)

	// The poller only gets to the job once the window has started.
	f.now = time.Date(2025, 3, 1, 22, 30, 0, 0, time.UTC)
	stats, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{Deferred: 1}, stats)
	assert.Zero(t, f.sender.count())

	stored, _ := f.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC), stored.NotBefore)
	assert.Zero(t, stored.Attempt)

	f.now = stored.NotBefore
	stats, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
}

func TestDuePoller_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	seedJob(t, f)
	p := NewDuePoller(f.deliverer, time.Hour, 10, f.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))
	assert.True(t, f.logger.HasMessage("info", "delivered due notifications"))
}

//Personal.AI order the ending
