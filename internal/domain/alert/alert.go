// Package alert implements the alert lifecycle: the guarded status machine and
// the pure reconciliation of obligation snapshots against persisted alerts.
package alert

import (
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// Status is the lifecycle state of an Alert.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusDismissed    Status = "dismissed"
	StatusResolved     Status = "resolved"
)

var transitions = map[Status][]Status{
	StatusActive:       {StatusAcknowledged, StatusDismissed, StatusResolved},
	StatusAcknowledged: {StatusDismissed, StatusResolved},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusDismissed, StatusResolved:
		return true
	}
	return false
}

// IsTerminal reports whether s is dismissed or resolved.
func (s Status) IsTerminal() bool {
	return s == StatusDismissed || s == StatusResolved
}

// CanTransitionTo reports whether s -> to is an allowed edge.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LiveStatuses are the non-terminal statuses.
func LiveStatuses() []Status {
	return []Status{StatusActive, StatusAcknowledged}
}

// ─────────────────────────────────────────────────────────────────────────────
// Alert
// ─────────────────────────────────────────────────────────────────────────────

// Alert is a notifiable compliance event for one entity. At most one live
// (active or acknowledged) alert exists per organization and entity.
type Alert struct {
	ID              string               `json:"id"`
	OrganizationID  string               `json:"organization_id"`
	Ref             obligation.EntityRef `json:"entity_ref"`
	Severity        obligation.Tier      `json:"severity"`
	Status          Status               `json:"status"`
	Title           string               `json:"title"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	LastEscalatedAt *time.Time           `json:"last_escalated_at,omitempty"`
	UpdatedAt       time.Time            `json:"updated_at"`
	ClosedAt        *time.Time           `json:"closed_at,omitempty"`
	ClosedBy        string               `json:"closed_by,omitempty"`

	// NotifiedSeverity is the highest severity already fanned out to
	// recipients; nil until the first dispatch.
	NotifiedSeverity *obligation.Tier `json:"notified_severity,omitempty"`

	// Version guards concurrent writes (optimistic locking).
	Version int `json:"version"`
}

// IsLive reports whether the alert is active or acknowledged.
func (a *Alert) IsLive() bool {
	return !a.Status.IsTerminal()
}

// Transition moves the alert to status to. Any edge not in the state machine,
// including every edge out of a terminal state, fails with a
// StateTransitionError and leaves the alert unchanged.
func (a *Alert) Transition(to Status, actor string, at time.Time) error {
	if !a.Status.CanTransitionTo(to) {
		return errors.NewStateTransitionError(string(a.Status), string(to))
	}
	a.Status = to
	a.UpdatedAt = at
	if to.IsTerminal() {
		closed := at
		a.ClosedAt = &closed
		a.ClosedBy = actor
	}
	return nil
}

// ChangeSeverity updates the severity in place and bumps LastEscalatedAt.
// It reports false when the severity is unchanged.
func (a *Alert) ChangeSeverity(t obligation.Tier, at time.Time) bool {
	if a.Severity == t {
		return false
	}
	a.Severity = t
	stamp := at
	a.LastEscalatedAt = &stamp
	a.UpdatedAt = at
	return true
}

// NeedsNotification reports whether the current severity has not been fanned
// out yet. Downgrades never re-notify.
func (a *Alert) NeedsNotification() bool {
	if !a.IsLive() {
		return false
	}
	return a.NotifiedSeverity == nil || *a.NotifiedSeverity < a.Severity
}

// MarkNotified records that the current severity has been dispatched.
func (a *Alert) MarkNotified() {
	t := a.Severity
	if a.NotifiedSeverity != nil && *a.NotifiedSeverity > t {
		t = *a.NotifiedSeverity
	}
	a.NotifiedSeverity = &t
}

// Clone returns a deep copy.
func (a *Alert) Clone() *Alert {
	c := *a
	if a.DueDate != nil {
		d := *a.DueDate
		c.DueDate = &d
	}
	if a.LastEscalatedAt != nil {
		l := *a.LastEscalatedAt
		c.LastEscalatedAt = &l
	}
	if a.ClosedAt != nil {
		cl := *a.ClosedAt
		c.ClosedAt = &cl
	}
	if a.NotifiedSeverity != nil {
		n := *a.NotifiedSeverity
		c.NotifiedSeverity = &n
	}
	return &c
}

//Personal.AI order the ending
