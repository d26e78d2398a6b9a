package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

func TestDedupKey(t *testing.T) {
	k := DedupKey("a1", ChannelEmail, "m1", "warning")
	assert.Len(t, k, 64)
	assert.Equal(t, k, DedupKey("a1", ChannelEmail, "m1", "warning"))

	assert.NotEqual(t, k, DedupKey("a1", ChannelEmail, "m1", "urgent"), "escalation re-notifies")
	assert.NotEqual(t, k, DedupKey("a1", ChannelSMS, "m1", "warning"))
	assert.NotEqual(t, k, DedupKey("a1", ChannelEmail, "m2", "warning"))
	assert.NotEqual(t, k, DedupKey("a2", ChannelEmail, "m1", "warning"))
	// Field boundaries are unambiguous.
	assert.NotEqual(t, DedupKey("a1", ChannelEmail, "m1x", "y"), DedupKey("a1", ChannelEmail, "m1", "xy"))
}

func TestSeveritySlot(t *testing.T) {
	assert.Equal(t, "urgent", SeveritySlot(obligation.TierUrgent, TriggerEscalated))
	assert.Equal(t, "resolved", SeveritySlot(obligation.TierUrgent, TriggerResolved))
}

func TestJob_IsDue(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	j := &Job{Status: StatusPending, NotBefore: now}
	assert.True(t, j.IsDue(now))
	j.NotBefore = now.Add(time.Minute)
	assert.False(t, j.IsDue(now))
	j.NotBefore = now.Add(-time.Minute)
	j.Status = StatusSent
	assert.False(t, j.IsDue(now))
	assert.True(t, StatusSkipped.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestMember_Address(t *testing.T) {
	m := Member{Email: "a@b.ro", Phone: "+40700000000", PushTopic: "members/m1"}
	assert.Equal(t, "a@b.ro", m.Address(ChannelEmail))
	assert.Equal(t, "+40700000000", m.Address(ChannelSMS))
	assert.Equal(t, "+40700000000", m.Address(ChannelWhatsApp))
	assert.Equal(t, "members/m1", m.Address(ChannelPush))
	m.WhatsApp = "+40711111111"
	assert.Equal(t, "+40711111111", m.Address(ChannelWhatsApp))
	assert.Equal(t, "", m.Address("fax"))
}

func TestPreference_Allows(t *testing.T) {
	p := Preference{
		Channels:    []Channel{ChannelEmail, ChannelSMS},
		OptOuts:     map[obligation.Kind][]Channel{obligation.KindTrainingAssignment: {ChannelSMS}},
		MinSeverity: obligation.TierAttention,
	}
	assert.True(t, p.Allows(obligation.KindMedicalExamination, ChannelSMS, obligation.TierUrgent))
	assert.False(t, p.Allows(obligation.KindTrainingAssignment, ChannelSMS, obligation.TierUrgent))
	assert.True(t, p.Allows(obligation.KindTrainingAssignment, ChannelEmail, obligation.TierUrgent))
	assert.False(t, p.Allows(obligation.KindMedicalExamination, ChannelEmail, obligation.TierInfo))

	assert.Equal(t, []Channel{ChannelEmail}, Preference{}.EnabledChannels())
}

func TestQuietHours_DeferUntil(t *testing.T) {
	bucharest, err := time.LoadLocation("Europe/Bucharest")
	require.NoError(t, err)

	overnight := QuietHours{Start: "22:00", End: "07:00", Timezone: "Europe/Bucharest"}
	cases := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"before window", time.Date(2025, 3, 3, 21, 59, 0, 0, bucharest), time.Date(2025, 3, 3, 21, 59, 0, 0, bucharest)},
		{"late evening", time.Date(2025, 3, 3, 23, 30, 0, 0, bucharest), time.Date(2025, 3, 4, 7, 0, 0, 0, bucharest)},
		{"early morning", time.Date(2025, 3, 4, 5, 0, 0, 0, bucharest), time.Date(2025, 3, 4, 7, 0, 0, 0, bucharest)},
		{"window end is outside", time.Date(2025, 3, 4, 7, 0, 0, 0, bucharest), time.Date(2025, 3, 4, 7, 0, 0, 0, bucharest)},
		{"month rollover", time.Date(2025, 3, 31, 22, 15, 0, 0, bucharest), time.Date(2025, 4, 1, 7, 0, 0, 0, bucharest)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := overnight.DeferUntil(tc.at.UTC())
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}

	sameDay := QuietHours{Start: "12:00", End: "14:00"}
	noon := time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)
	got, err := sameDay.DeferUntil(noon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC), got)

	empty := QuietHours{Start: "09:00", End: "09:00"}
	got, err = empty.DeferUntil(noon)
	require.NoError(t, err)
	assert.Equal(t, noon, got)
}

func TestQuietHours_Validate(t *testing.T) {
	assert.NoError(t, QuietHours{Start: "22:00", End: "07:00", Timezone: "Europe/Bucharest"}.Validate())
	assert.Error(t, QuietHours{Start: "25:00", End: "07:00"}.Validate())
	assert.Error(t, QuietHours{Start: "22:00", End: "x"}.Validate())
	assert.Error(t, QuietHours{Start: "22:00", End: "07:00", Timezone: "Mars/Olympus"}.Validate())

	_, err := QuietHours{Start: "bad", End: "07:00"}.DeferUntil(time.Now())
	assert.Error(t, err)
}

func TestJob_HoldUntil(t *testing.T) {
	night := &QuietHours{Start: "22:00", End: "07:00", Timezone: "UTC"}
	evening := time.Date(2025, 3, 1, 21, 59, 0, 0, time.UTC)
	late := time.Date(2025, 3, 1, 22, 30, 0, 0, time.UTC)
	morning := time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC)

	j := &Job{QuietHours: night}
	assert.Equal(t, evening, j.HoldUntil(evening))
	assert.Equal(t, morning, j.HoldUntil(late))
	assert.Equal(t, morning, j.HoldUntil(morning))

	assert.Equal(t, late, (&Job{}).HoldUntil(late), "no window")
	broken := &Job{QuietHours: &QuietHours{Start: "25:00", End: "07:00"}}
	assert.Equal(t, late, broken.HoldUntil(late), "invalid window is ignored")
}

func TestStatus_IsValid(t *testing.T) {
	for _, st := range []Status{StatusPending, StatusSent, StatusFailed, StatusSkipped} {
		assert.True(t, st.IsValid(), st)
	}
	assert.False(t, Status("delivered").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestChannel_IsValid(t *testing.T) {
	for _, ch := range AllChannels() {
		assert.True(t, ch.IsValid())
	}
	assert.False(t, Channel("fax").IsValid())
}

//Personal.AI order the ending
