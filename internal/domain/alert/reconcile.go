package alert

import (
	"sort"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

// TransitionKind classifies one reconciliation decision.
type TransitionKind string

const (
	TransitionCreate    TransitionKind = "created"
	TransitionEscalate  TransitionKind = "escalated"
	TransitionDowngrade TransitionKind = "downgraded"
	TransitionResolve   TransitionKind = "resolved"
)

// Transition is one change to apply to the alert store. Alert holds the
// state after the change; for creates it is a new record.
type Transition struct {
	Kind     TransitionKind
	Alert    *Alert
	Previous obligation.Tier
	// ExpectedVersion is the version the stored row must still have for an
	// update to apply. Zero for creates.
	ExpectedVersion int
}

// ReconcileInput is everything one reconciliation pass may look at. All
// snapshots must come from a single aggregation at one asOf.
type ReconcileInput struct {
	OrganizationID string
	Snapshots      []obligation.Snapshot
	// Held are entities whose calculation failed in this pass. Their alerts
	// are left untouched rather than auto-resolved.
	Held []obligation.EntityRef
	// Current are the live alerts of the organization.
	Current []*Alert
	// Dismissed maps an entity to the severity of its most recent dismissed
	// alert. A new alert is only created once severity exceeds it.
	Dismissed map[obligation.EntityRef]obligation.Tier
	Now       time.Time
	NewID     func() string
}

// Reconcile diffs snapshots against live alerts and returns the transitions
// that bring the store in line, ordered by entity ref. It does not mutate its
// inputs and performs no I/O, so running it twice over unchanged state yields
// no transitions the second time.
//
//   - alert-worthy snapshot, no live alert: create (unless dismissal suppresses it)
//   - alert-worthy snapshot, different severity: escalate or downgrade in place
//   - alert-worthy snapshot, same severity: nothing
//   - ok or absent snapshot with a live alert: resolve
//   - unscheduled or held entity: nothing
func Reconcile(in ReconcileInput) []Transition {
	live := make(map[obligation.EntityRef]*Alert, len(in.Current))
	var out []Transition

	current := make([]*Alert, len(in.Current))
	copy(current, in.Current)
	sort.SliceStable(current, func(i, j int) bool {
		if !current[i].CreatedAt.Equal(current[j].CreatedAt) {
			return current[i].CreatedAt.Before(current[j].CreatedAt)
		}
		return current[i].ID < current[j].ID
	})
	for _, a := range current {
		if !a.IsLive() || a.OrganizationID != in.OrganizationID {
			continue
		}
		if _, dup := live[a.Ref]; dup {
			// Only reachable if the store lost its uniqueness guarantee;
			// keep the oldest and close the rest.
			out = append(out, resolve(a, in.Now))
			continue
		}
		live[a.Ref] = a
	}

	seen := make(map[obligation.EntityRef]bool, len(in.Snapshots)+len(in.Held))
	for _, ref := range in.Held {
		seen[ref] = true
	}

	snaps := make([]obligation.Snapshot, len(in.Snapshots))
	copy(snaps, in.Snapshots)
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Ref.Less(snaps[j].Ref) })

	for _, s := range snaps {
		if seen[s.Ref] {
			continue
		}
		seen[s.Ref] = true
		if s.Unscheduled {
			continue
		}

		existing := live[s.Ref]
		switch {
		case !s.Severity.IsAlertWorthy():
			if existing != nil {
				out = append(out, resolve(existing, in.Now))
			}
		case existing == nil:
			if dismissed, ok := in.Dismissed[s.Ref]; ok && s.Severity <= dismissed {
				continue
			}
			out = append(out, create(in, s))
		case existing.Severity != s.Severity:
			next := existing.Clone()
			prev := next.Severity
			next.ChangeSeverity(s.Severity, in.Now)
			next.DueDate = s.DueDate
			next.Version = existing.Version + 1
			kind := TransitionEscalate
			if s.Severity < prev {
				kind = TransitionDowngrade
			}
			out = append(out, Transition{Kind: kind, Alert: next, Previous: prev, ExpectedVersion: existing.Version})
		}
	}

	var orphans []*Alert
	for ref, a := range live {
		if !seen[ref] {
			orphans = append(orphans, a)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Ref.Less(orphans[j].Ref) })
	for _, a := range orphans {
		out = append(out, resolve(a, in.Now))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Alert.Ref.Less(out[j].Alert.Ref) })
	return out
}

func create(in ReconcileInput, s obligation.Snapshot) Transition {
	a := &Alert{
		ID:             in.NewID(),
		OrganizationID: in.OrganizationID,
		Ref:            s.Ref,
		Severity:       s.Severity,
		Status:         StatusActive,
		Title:          s.Title,
		DueDate:        s.DueDate,
		CreatedAt:      in.Now,
		UpdatedAt:      in.Now,
		Version:        1,
	}
	return Transition{Kind: TransitionCreate, Alert: a, Previous: obligation.TierOK}
}

func resolve(a *Alert, now time.Time) Transition {
	next := a.Clone()
	// Live alerts can always move to resolved.
	_ = next.Transition(StatusResolved, ActorSystem, now)
	next.Version = a.Version + 1
	return Transition{Kind: TransitionResolve, Alert: next, Previous: a.Severity, ExpectedVersion: a.Version}
}

// ActorSystem marks transitions made by the sweep rather than a user.
const ActorSystem = "system"

// Counts tallies transitions by kind.
func Counts(ts []Transition) map[TransitionKind]int {
	out := make(map[TransitionKind]int, 4)
	for _, t := range ts {
		out[t.Kind]++
	}
	return out
}

//Personal.AI order the ending
