// Package notification models notification jobs, recipients and their
// delivery preferences.
package notification

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// AllChannels lists every channel in fan-out order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelPush, ChannelSMS, ChannelWhatsApp}
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

// Status is the delivery state of a Job.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	// StatusSkipped marks jobs that became pointless before delivery, such as
	// a deferred job whose alert was closed meanwhile.
	StatusSkipped Status = "skipped"
)

// IsValid reports whether s is a known job status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// IsTerminal reports whether no further delivery attempt will happen.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusSkipped
}

// Trigger is the alert event that caused a fan-out.
type Trigger string

const (
	TriggerCreated   Trigger = "created"
	TriggerEscalated Trigger = "escalated"
	TriggerResolved  Trigger = "resolved"
)

// Job is one delivery of one alert to one recipient over one channel.
type Job struct {
	ID             string               `json:"id"`
	AlertID        string               `json:"alert_id"`
	OrganizationID string               `json:"organization_id"`
	Ref            obligation.EntityRef `json:"entity_ref"`
	Channel        Channel              `json:"channel"`
	RecipientRef   string               `json:"recipient_ref"`
	// Address is the channel-specific destination (email, phone, push topic).
	Address  string          `json:"address"`
	Severity obligation.Tier `json:"severity"`
	Trigger  Trigger         `json:"trigger"`
	Title    string          `json:"title"`
	DedupKey string          `json:"dedup_key"`
	Attempt  int             `json:"attempt"`
	Status   Status          `json:"status"`
	// QuietHours is the recipient's window at dispatch time. Retries and
	// late deliveries are held outside it too.
	QuietHours *QuietHours `json:"quiet_hours,omitempty"`
	// NotBefore defers delivery (quiet hours, retry backoff, delivery lease).
	NotBefore time.Time  `json:"not_before"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// IsDue reports whether a pending job may be attempted at now.
func (j *Job) IsDue(now time.Time) bool {
	return j.Status == StatusPending && !now.Before(j.NotBefore)
}

// HoldUntil moves t past the job's quiet hours, in UTC. An invalid window
// never holds a job back.
func (j *Job) HoldUntil(t time.Time) time.Time {
	if j.QuietHours == nil {
		return t
	}
	deferred, err := j.QuietHours.DeferUntil(t)
	if err != nil {
		return t
	}
	return deferred.UTC()
}

// SeveritySlot is the severity component of the dedup key. Resolution
// notices use their own slot so they never collide with a severity notice.
func SeveritySlot(severity obligation.Tier, trigger Trigger) string {
	if trigger == TriggerResolved {
		return "resolved"
	}
	return severity.String()
}

// DedupKey hashes (alertId, channel, recipientRef, severityAtDispatch). The
// same alert at the same severity reaches a recipient on a channel at most
// once; an escalation yields a new key.
func DedupKey(alertID string, channel Channel, recipientRef, severitySlot string) string {
	h := sha256.Sum256([]byte(strings.Join([]string{alertID, string(channel), recipientRef, severitySlot}, "\x1f")))
	return hex.EncodeToString(h[:])
}

//Personal.AI order the ending
