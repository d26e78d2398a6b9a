package notification

import (
	"fmt"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// Member is an organization member who can receive notifications.
type Member struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	WhatsApp       string     `json:"whatsapp,omitempty"`
	PushTopic      string     `json:"push_topic,omitempty"`
	Active         bool       `json:"active"`
	Preference     Preference `json:"preference"`
}

// Address returns the member's destination for ch, empty when unknown.
func (m Member) Address(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return m.Email
	case ChannelPush:
		return m.PushTopic
	case ChannelSMS:
		return m.Phone
	case ChannelWhatsApp:
		if m.WhatsApp != "" {
			return m.WhatsApp
		}
		return m.Phone
	}
	return ""
}

// Preference holds a member's channel opt-ins, per-alert-type opt-outs and
// quiet hours.
type Preference struct {
	// Channels the member opted into. Empty means email only.
	Channels []Channel `json:"channels"`
	// OptOuts lists channels muted per entity kind.
	OptOuts map[obligation.Kind][]Channel `json:"opt_outs,omitempty"`
	// MinSeverity drops alerts below this tier for the member.
	MinSeverity obligation.Tier `json:"min_severity"`
	QuietHours  *QuietHours     `json:"quiet_hours,omitempty"`
}

// EnabledChannels returns the opted-in channels, defaulting to email.
func (p Preference) EnabledChannels() []Channel {
	if len(p.Channels) == 0 {
		return []Channel{ChannelEmail}
	}
	return p.Channels
}

// Allows reports whether ch may carry alerts about kind at severity.
func (p Preference) Allows(kind obligation.Kind, ch Channel, severity obligation.Tier) bool {
	if severity < p.MinSeverity {
		return false
	}
	for _, muted := range p.OptOuts[kind] {
		if muted == ch {
			return false
		}
	}
	return true
}

// QuietHours is a daily window, in the member's timezone, during which
// deliveries are deferred. Start after End spans midnight (22:00-07:00).
type QuietHours struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// Validate checks the HH:MM bounds and the IANA timezone.
func (q QuietHours) Validate() error {
	if _, _, err := parseHHMM(q.Start); err != nil {
		return err
	}
	if _, _, err := parseHHMM(q.End); err != nil {
		return err
	}
	if _, err := q.location(); err != nil {
		return err
	}
	return nil
}

func (q QuietHours) location() (*time.Location, error) {
	if q.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return nil, fmt.Errorf("notification: invalid quiet hours timezone %q: %w", q.Timezone, err)
	}
	return loc, nil
}

// DeferUntil returns the instant quiet hours covering t end, or t itself when
// t is outside the window. A window with equal bounds is empty.
func (q QuietHours) DeferUntil(t time.Time) (time.Time, error) {
	sh, sm, err := parseHHMM(q.Start)
	if err != nil {
		return t, err
	}
	eh, em, err := parseHHMM(q.End)
	if err != nil {
		return t, err
	}
	loc, err := q.location()
	if err != nil {
		return t, err
	}

	local := t.In(loc)
	cur := local.Hour()*60 + local.Minute()
	start, end := sh*60+sm, eh*60+em

	var inside, endsTomorrow bool
	switch {
	case start == end:
		return t, nil
	case start < end:
		inside = cur >= start && cur < end
	default:
		inside = cur >= start || cur < end
		endsTomorrow = cur >= start
	}
	if !inside {
		return t, nil
	}

	y, m, d := local.Date()
	if endsTomorrow {
		d++
	}
	return time.Date(y, m, d, eh, em, 0, 0, loc), nil
}

func parseHHMM(s string) (int, int, error) {
	var h, m int
	n, err := fmt.Sscanf(s, "%d:%d", &h, &m)
	if err != nil || n != 2 || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("notification: invalid HH:MM value %q", s)
	}
	return h, m, nil
}

//Personal.AI order the ending
