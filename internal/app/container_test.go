package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/testutil"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	cfg := config.NewDefaultConfig()
	return &Container{Config: cfg, Logger: testutil.NewMockLogger(), Policy: compliance.NewPolicySource(cfg.Policy.ToPolicy())}
}

func TestContainer_Schedules(t *testing.T) {
	c := newTestContainer(t)

	got, err := c.Schedules()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "daily", got[0].Name)
	assert.Nil(t, got[0].Weekday)
	require.NotNil(t, got[1].Weekday)
	assert.Equal(t, "Monday", got[1].Weekday.String())
}

func TestContainer_SchedulesInvalid(t *testing.T) {
	c := newTestContainer(t)
	c.Config.Sweep.Schedules = []config.ScheduleConfig{{Name: "broken", At: "noon"}}

	_, err := c.Schedules()
	assert.Error(t, err)
}

func TestContainer_ApplyPolicy(t *testing.T) {
	c := newTestContainer(t)
	next := config.NewDefaultConfig()
	next.Policy.UrgentDays = 3

	require.NoError(t, c.ApplyPolicy(next))
	assert.Equal(t, 3, c.Policy.Get().UrgentDays)
	assert.True(t, c.Logger.(*testutil.MockLogger).HasMessage("info", "severity policy reloaded"))
}

func TestContainer_ApplyPolicyRejectsInvalid(t *testing.T) {
	c := newTestContainer(t)
	bad := config.NewDefaultConfig()
	bad.Policy.UrgentDays = 90 // wider than the warning window

	assert.Error(t, c.ApplyPolicy(bad))
	assert.Equal(t, 7, c.Policy.Get().UrgentDays)
}

func TestContainer_CloseRunsInReverse(t *testing.T) {
	c := newTestContainer(t)
	var order []int
	c.onClose(func() { order = append(order, 1) })
	c.onClose(func() { order = append(order, 2) })

	c.Close()
	c.Close()

	assert.Equal(t, []int{2, 1}, order)
}

func TestBuild_InvalidTimezone(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Sweep.Timezone = "Mars/Olympus"

	_, err := Build(context.Background(), cfg, testutil.NewMockLogger())
	assert.Error(t, err)
}

//Personal.AI order the ending
