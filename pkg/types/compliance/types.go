// Package compliance holds the wire types of the ComplianceSentinel HTTP
// API, shared by the Go SDK and external consumers.
package compliance

import (
	"fmt"
	"time"
)

// Severity is an alert severity tier, ordered info < attention < warning <
// urgent < expired.
type Severity string

const (
	SeverityOK        Severity = "ok"
	SeverityInfo      Severity = "info"
	SeverityAttention Severity = "attention"
	SeverityWarning   Severity = "warning"
	SeverityUrgent    Severity = "urgent"
	SeverityExpired   Severity = "expired"
)

var severityRank = map[Severity]int{
	SeverityOK:        0,
	SeverityInfo:      1,
	SeverityAttention: 2,
	SeverityWarning:   3,
	SeverityUrgent:    4,
	SeverityExpired:   5,
}

func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertDismissed    AlertStatus = "dismissed"
	AlertResolved     AlertStatus = "resolved"
)

func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertActive, AlertAcknowledged, AlertDismissed, AlertResolved:
		return true
	}
	return false
}

// IsLive reports whether the alert still occupies its entity's slot.
func (s AlertStatus) IsLive() bool {
	return s == AlertActive || s == AlertAcknowledged
}

// EntityKind names a tracked compliance entity type.
type EntityKind string

const (
	KindMedicalExamination EntityKind = "medical_examination"
	KindTrainingAssignment EntityKind = "training_assignment"
	KindEquipmentCheck     EntityKind = "equipment_check"
	KindLegalObligation    EntityKind = "legal_obligation"
)

func (k EntityKind) IsValid() bool {
	switch k {
	case KindMedicalExamination, KindTrainingAssignment, KindEquipmentCheck, KindLegalObligation:
		return true
	}
	return false
}

// EntityRef identifies one tracked entity.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r EntityRef) String() string { return fmt.Sprintf("%s:%s", r.Kind, r.ID) }

// CategoryScore is the score of one category.
type CategoryScore struct {
	Category    string `json:"category"`
	Score       int    `json:"score"`
	Entities    int    `json:"entities"`
	Unscheduled int    `json:"unscheduled"`
}

// Score is an organization's compliance score. Scored is false when the
// organization tracks nothing; Total is then meaningless.
type Score struct {
	OrganizationID string          `json:"organization_id"`
	Total          int             `json:"total"`
	Scored         bool            `json:"scored"`
	Categories     []CategoryScore `json:"categories"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// Alert is a deadline alert on one entity.
type Alert struct {
	ID               string      `json:"id"`
	OrganizationID   string      `json:"organization_id"`
	Ref              EntityRef   `json:"entity_ref"`
	Severity         Severity    `json:"severity"`
	Status           AlertStatus `json:"status"`
	Title            string      `json:"title"`
	DueDate          *time.Time  `json:"due_date,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	LastEscalatedAt  *time.Time  `json:"last_escalated_at,omitempty"`
	UpdatedAt        time.Time   `json:"updated_at"`
	ClosedAt         *time.Time  `json:"closed_at,omitempty"`
	ClosedBy         string      `json:"closed_by,omitempty"`
	NotifiedSeverity *Severity   `json:"notified_severity,omitempty"`
	Version          int         `json:"version"`
}

// Overview is the dashboard view of an organization.
type Overview struct {
	Score        Score       `json:"score"`
	ActiveAlerts []*Alert    `json:"active_alerts"`
	Unscheduled  []EntityRef `json:"unscheduled"`
}

// Notification is one per-recipient, per-channel delivery job.
type Notification struct {
	ID             string     `json:"id"`
	AlertID        string     `json:"alert_id"`
	OrganizationID string     `json:"organization_id"`
	Ref            EntityRef  `json:"entity_ref"`
	Channel        string     `json:"channel"`
	RecipientRef   string     `json:"recipient_ref"`
	Address        string     `json:"address"`
	Severity       Severity   `json:"severity"`
	Trigger        string     `json:"trigger"`
	Title          string     `json:"title"`
	DedupKey       string     `json:"dedup_key"`
	Attempt        int        `json:"attempt"`
	Status         string     `json:"status"`
	NotBefore      time.Time  `json:"not_before"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
}

// SweepSummary reports one organization sweep. Duration is in nanoseconds.
type SweepSummary struct {
	OrganizationID    string        `json:"organization_id"`
	Checked           int           `json:"checked"`
	Unscheduled       int           `json:"unscheduled"`
	AlertsCreated     int           `json:"alerts_created"`
	AlertsEscalated   int           `json:"alerts_escalated"`
	AlertsDowngraded  int           `json:"alerts_downgraded"`
	AlertsResolved    int           `json:"alerts_resolved"`
	NotificationsSent int           `json:"notifications_sent"`
	Errors            int           `json:"errors"`
	Score             *int          `json:"score,omitempty"`
	Duration          time.Duration `json:"duration"`
	Error             string        `json:"error,omitempty"`
}

// AlertFilter narrows an alert listing.
type AlertFilter struct {
	Statuses    []AlertStatus
	MinSeverity Severity
	Kind        EntityKind
	Page        int
	PageSize    int
}

// Validate rejects values the server would refuse.
func (f AlertFilter) Validate() error {
	for _, s := range f.Statuses {
		if !s.IsValid() {
			return fmt.Errorf("invalid alert status %q", s)
		}
	}
	if f.MinSeverity != "" && !f.MinSeverity.IsValid() {
		return fmt.Errorf("invalid severity %q", f.MinSeverity)
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		return fmt.Errorf("invalid entity kind %q", f.Kind)
	}
	if f.Page < 0 || f.PageSize < 0 || f.PageSize > 500 {
		return fmt.Errorf("invalid pagination page=%d page_size=%d", f.Page, f.PageSize)
	}
	return nil
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	AlertID  string
	Statuses []string
	Channel  string
	Page     int
	PageSize int
}

//Personal.AI order the ending
