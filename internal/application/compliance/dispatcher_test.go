package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

func testAlert(severity obligation.Tier) *alert.Alert {
	return &alert.Alert{
		ID:             "alert-1",
		OrganizationID: testOrg,
		Ref:            obligation.EntityRef{Kind: obligation.KindMedicalExamination, ID: "m-1"},
		Severity:       severity,
		Status:         alert.StatusActive,
		Title:          "Periodic exam m-1",
		CreatedAt:      baseNow,
		Version:        1,
	}
}

func TestDispatch_FanOut(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	f.members.members[testOrg] = []notification.Member{
		{
			ID: "m-opt", Email: "a@example.com", Phone: "+40700000001", Active: true,
			Preference: notification.Preference{
				Channels: []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
				OptOuts:  map[obligation.Kind][]notification.Channel{obligation.KindMedicalExamination: {notification.ChannelSMS}},
			},
		},
		{
			ID: "m-quiet", Email: "b@example.com", Active: true,
			Preference: notification.Preference{
				QuietHours: &notification.QuietHours{Start: "22:00", End: "07:00", Timezone: "UTC"},
			},
		},
		{
			ID: "m-noaddr", Active: true,
			Preference: notification.Preference{Channels: []notification.Channel{notification.ChannelPush}},
		},
		{
			ID: "m-min", Email: "c@example.com", Active: true,
			Preference: notification.Preference{MinSeverity: obligation.TierUrgent},
		},
	}

	jobs, err := f.dispatcher.Dispatch(context.Background(), testAlert(obligation.TierWarning), notification.TriggerCreated)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "m-opt", jobs[0].RecipientRef)
	assert.Equal(t, notification.ChannelEmail, jobs[0].Channel)
	assert.Equal(t, f.now, jobs[0].NotBefore)
	assert.Equal(t, notification.StatusPending, jobs[0].Status)
	assert.Equal(t, notification.DedupKey("alert-1", notification.ChannelEmail, "m-opt", "warning"), jobs[0].DedupKey)

	assert.Equal(t, "m-quiet", jobs[1].RecipientRef)
	assert.Equal(t, time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC), jobs[1].NotBefore, "quiet hours defer, never drop")
	assert.False(t, jobs[1].IsDue(f.now))
	require.NotNil(t, jobs[1].QuietHours, "the window travels with the job")
	assert.Equal(t, "22:00", jobs[1].QuietHours.Start)
	assert.Nil(t, jobs[0].QuietHours)
}

func TestDispatch_DedupAcrossRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.dispatcher.Dispatch(ctx, testAlert(obligation.TierWarning), notification.TriggerCreated)
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := f.dispatcher.Dispatch(ctx, testAlert(obligation.TierWarning), notification.TriggerCreated)
	require.NoError(t, err)
	assert.Empty(t, again)

	escalated, err := f.dispatcher.Dispatch(ctx, testAlert(obligation.TierUrgent), notification.TriggerEscalated)
	require.NoError(t, err)
	assert.Len(t, escalated, 1)

	resolved, err := f.dispatcher.Dispatch(ctx, testAlert(obligation.TierUrgent), notification.TriggerResolved)
	require.NoError(t, err)
	assert.Len(t, resolved, 1, "resolution notices use their own slot")
	assert.Equal(t, 3, f.jobs.count())
}

func TestSortForDelivery(t *testing.T) {
	jobs := []*notification.Job{
		{ID: "c", Severity: obligation.TierAttention, CreatedAt: baseNow},
		{ID: "b", Severity: obligation.TierExpired, CreatedAt: baseNow.Add(time.Second)},
		{ID: "a", Severity: obligation.TierExpired, CreatedAt: baseNow},
		{ID: "d", Severity: obligation.TierUrgent, CreatedAt: baseNow},
	}
	SortForDelivery(jobs)
	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids)
}

//Personal.AI order the ending
